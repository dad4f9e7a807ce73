package lock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes a key only when its value matches the supplied
// owner.  Running GET and DEL as one script keeps the compare-and-delete
// atomic, so a lock that expired and was re-acquired by someone else is
// never deleted by the previous owner.
var releaseScript = redis.NewScript(`
    if redis.call('GET', KEYS[1]) == ARGV[1] then
        return redis.call('DEL', KEYS[1])
    end
    return 0
`)

// Service provides distributed locks on top of Redis.
type Service struct {
	rdb *redis.Client
}

// New returns a lock Service backed by the given Redis client.
func New(rdb *redis.Client) *Service { return &Service{rdb: rdb} }

// Acquire atomically sets key to owner with the given TTL if the key is
// absent.  It returns true iff the caller now owns the key.
func (s *Service) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, owner, ttl).Result()
}

// Release deletes key only if it still holds owner's value.  Releasing
// a key that expired or belongs to someone else is a silent no-op.
func (s *Service) Release(ctx context.Context, key, owner string) error {
	return releaseScript.Run(ctx, s.rdb, []string{key}, owner).Err()
}

// ReleaseAll unconditionally deletes the given keys.  Use it only after
// every owner has been verified, or for best-effort reclaim where the
// database already reflects the final state.
func (s *Service) ReleaseAll(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

// GetMany returns the values stored under the given keys, preserving
// index order.  Missing keys yield empty strings with ok=false.
func (s *Service) GetMany(ctx context.Context, keys []string) ([]string, []bool, error) {
	if len(keys) == 0 {
		return nil, nil, nil
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, nil, err
	}
	out := make([]string, len(vals))
	ok := make([]bool, len(vals))
	for i, v := range vals {
		if sv, isStr := v.(string); isStr {
			out[i] = sv
			ok[i] = true
		}
	}
	return out, ok, nil
}
