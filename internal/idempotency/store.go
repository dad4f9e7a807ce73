// Package idempotency implements the two-phase response cache that lets
// clients retry a reservation request safely.  A claimed key first
// holds a "processing" marker; once the work completes the marker is
// replaced by the final JSON response.  Markers and responses share one
// TTL, so a crashed first writer cannot strand retries for longer than
// that.
package idempotency

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// processingMarker is the sentinel stored while the first writer is
// still working.  The literal JSON form is part of the key-space
// contract and is what operators see when inspecting the store.
const processingMarker = `{"status":"processing"}`

// maxKeyLen caps client-supplied idempotency keys.
const maxKeyLen = 128

const (
	pollAttempts = 15
	pollInterval = 100 * time.Millisecond
)

// ErrInFlight is returned by Await when the first writer has not
// finished within the polling budget.  Callers surface it as a
// conflict: the client should retry later with the same key.
var ErrInFlight = errors.New("request with this idempotency key is still being processed")

// Outcome reports how a Claim resolved.
type Outcome int

const (
	// FirstWriter means the caller owns the key and must do the work.
	FirstWriter Outcome = iota
	// Hit means a final response was already cached.
	Hit
	// Pending means another writer holds the processing marker.
	Pending
)

// NormalizeKey trims a client-supplied idempotency key and truncates it
// to 128 characters.  An empty result means no key was supplied and the
// request is not idempotent.
func NormalizeKey(raw string) string {
	k := strings.TrimSpace(raw)
	if len(k) > maxKeyLen {
		k = k[:maxKeyLen]
	}
	return k
}

// Store is the Redis-backed idempotency cache.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// New returns a Store whose markers and responses expire after ttl.
func New(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// Claim resolves a cache key to one of the three outcomes.  The
// processing marker is planted with SET NX so exactly one concurrent
// caller becomes the first writer; a lost race degrades to Hit or
// Pending depending on what the winner has stored by then.
func (s *Store) Claim(ctx context.Context, key string) (Outcome, []byte, error) {
	val, err := s.rdb.Get(ctx, key).Result()
	switch {
	case err == redis.Nil:
		// fall through to the SETNX below
	case err != nil:
		return 0, nil, err
	case val == processingMarker:
		return Pending, nil, nil
	default:
		return Hit, []byte(val), nil
	}

	set, err := s.rdb.SetNX(ctx, key, processingMarker, s.ttl).Result()
	if err != nil {
		return 0, nil, err
	}
	if set {
		return FirstWriter, nil, nil
	}
	// Lost the race: someone planted the marker (or even the final
	// response) between our GET and SETNX.
	val, err = s.rdb.Get(ctx, key).Result()
	if err == redis.Nil || (err == nil && val == processingMarker) {
		return Pending, nil, nil
	}
	if err != nil {
		return 0, nil, err
	}
	return Hit, []byte(val), nil
}

// Get returns the cached value under key.  final is true when the value
// is a completed response rather than the processing marker; exists is
// false when the key is gone entirely.
func (s *Store) Get(ctx context.Context, key string) (body []byte, final bool, exists bool, err error) {
	val, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, false, nil
	}
	if err != nil {
		return nil, false, false, err
	}
	if val == processingMarker {
		return nil, false, true, nil
	}
	return []byte(val), true, true, nil
}

// Await polls for the first writer's final response, up to 15 attempts
// at 100ms intervals (≤1.5s total).  If the marker vanished the caller
// may retry the whole request; if it is still processing after the
// budget, ErrInFlight is returned.
func (s *Store) Await(ctx context.Context, key string) ([]byte, error) {
	for i := 0; i < pollAttempts; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
		body, final, exists, err := s.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if final {
			return body, nil
		}
		if !exists {
			// First writer failed and cleaned up its marker.
			return nil, ErrInFlight
		}
	}
	return nil, ErrInFlight
}

// Store replaces the processing marker with the final response body,
// resetting the TTL.
func (s *Store) Store(ctx context.Context, key string, response []byte) error {
	return s.rdb.Set(ctx, key, response, s.ttl).Err()
}

// Delete removes the marker so the next retry may attempt the work
// afresh.  Called by the first writer on failure.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
