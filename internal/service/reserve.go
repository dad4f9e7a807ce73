package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/cinema-ticketing/internal/idempotency"
	"github.com/iliyamo/cinema-ticketing/internal/lock"
	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/queue"
)

// Reservations implements the reservation lifecycle: Reserve,
// Confirm-Payment and the seat availability view.
type Reservations struct {
	store Store
	locks Locker
	idem  IdempotencyCache
	bus   Publisher

	reservationTTL time.Duration

	// now is a clock hook so tests can drive expiry deterministically.
	now func() time.Time
}

// NewReservations wires the action layer.  reservationTTL is how long a
// seat lock and its PENDING reservation hold the seat.
func NewReservations(store Store, locks Locker, idem IdempotencyCache, bus Publisher, reservationTTL time.Duration) *Reservations {
	return &Reservations{
		store:          store,
		locks:          locks,
		idem:           idem,
		bus:            bus,
		reservationTTL: reservationTTL,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// ReserveInput is a request to hold one or more seats for a user.
type ReserveInput struct {
	UserID         string   `json:"userId"`
	SeatIDs        []string `json:"seatIds"`
	IdempotencyKey string   `json:"-"`
}

// ReserveResponse is the response body recorded for idempotent replays.
// The JSON form is the contract: replays within the idempotency TTL
// return these exact bytes.
type ReserveResponse struct {
	Message          string   `json:"message"`
	ReservationIDs   []string `json:"reservationIds"`
	ExpiresAt        string   `json:"expiresAt"`
	ExpiresInSeconds int      `json:"expiresInSeconds"`
}

// Reserve executes the seat reservation protocol and returns the
// serialized response body.  Locks are always acquired in sorted seat-id
// order, so two callers over overlapping seat sets can never deadlock:
// one of them wins every common prefix.
func (r *Reservations) Reserve(ctx context.Context, in ReserveInput) ([]byte, error) {
	if in.UserID == "" {
		return nil, BadRequest("userId is required")
	}
	seatIDs := dedupe(in.SeatIDs)
	if len(seatIDs) == 0 {
		return nil, BadRequest("seatIds is required")
	}

	// Idempotency gate: replay a finished request, wait out a
	// concurrent one, or become the first writer.
	cacheKey := ""
	if key := idempotency.NormalizeKey(in.IdempotencyKey); key != "" {
		cacheKey = lock.IdemKey(in.UserID, key)
		outcome, cached, err := r.idem.Claim(ctx, cacheKey)
		if err != nil {
			return nil, Internal("idempotency claim failed", err)
		}
		switch outcome {
		case idempotency.Hit:
			return cached, nil
		case idempotency.Pending:
			body, err := r.idem.Await(ctx, cacheKey)
			if err == idempotency.ErrInFlight {
				return nil, Conflict("request with this idempotency key is still in progress, retry shortly")
			}
			if err != nil {
				return nil, Internal("idempotency poll failed", err)
			}
			return body, nil
		}
		// FirstWriter falls through to do the work.
	}

	body, err := r.reserve(ctx, in.UserID, seatIDs)
	if err != nil {
		if cacheKey != "" {
			// Free the key so the client's retry can attempt the work
			// afresh instead of polling a dead marker.
			if delErr := r.idem.Delete(ctx, cacheKey); delErr != nil {
				log.Printf("reserve: idempotency marker cleanup failed: %v", delErr)
			}
		}
		return nil, err
	}
	if cacheKey != "" {
		if err := r.idem.Store(ctx, cacheKey, body); err != nil {
			log.Printf("reserve: idempotency store failed: %v", err)
		}
	}
	return body, nil
}

// reserve is the first-writer path: pre-check, ordered lock
// acquisition, transactional insert, publish.
func (r *Reservations) reserve(ctx context.Context, userID string, seatIDs []string) ([]byte, error) {
	// Deterministic global ordering eliminates AB/BA deadlocks.
	sort.Strings(seatIDs)

	seats, err := r.store.SeatsByIDs(ctx, seatIDs)
	if err != nil {
		return nil, Internal("seat lookup failed", err)
	}
	if len(seats) != len(seatIDs) {
		return nil, NotFound("one or more seats do not exist")
	}
	if unavailable := notAvailable(seats); len(unavailable) > 0 {
		return nil, Conflict("seats not available: " + strings.Join(unavailable, ", "))
	}

	// Acquire the seat locks in sorted order, tracking every success so
	// rollback is complete even when a later step fails.
	acquired := make([]string, 0, len(seatIDs))
	rollback := func() {
		if len(acquired) == 0 {
			return
		}
		if err := r.locks.ReleaseAll(ctx, acquired...); err != nil {
			log.Printf("reserve: lock rollback failed for %d keys: %v", len(acquired), err)
		}
	}
	for _, id := range seatIDs {
		key := lock.SeatKey(id)
		ok, err := r.locks.Acquire(ctx, key, userID, r.reservationTTL)
		if err != nil {
			rollback()
			return nil, Internal("lock acquisition failed", err)
		}
		if !ok {
			rollback()
			return nil, Conflict(fmt.Sprintf("seat %s is being reserved by another user", id))
		}
		acquired = append(acquired, key)
	}

	expiresAt := r.now().Add(r.reservationTTL)
	var reservations []model.Reservation
	err = r.store.InTx(ctx, func(tx Tx) error {
		var txErr error
		reservations, txErr = tx.CreateReservations(ctx, userID, seatIDs, expiresAt)
		return txErr
	})
	if err != nil {
		rollback()
		return nil, Internal("reservation creation failed", err)
	}

	for _, res := range reservations {
		ev := queue.ReservationCreatedEvent{
			ID:        res.ID,
			UserID:    res.UserID,
			SeatID:    res.SeatID,
			Status:    res.Status,
			ExpiresAt: res.ExpiresAt.Format(time.RFC3339),
		}
		if err := r.bus.Publish(ctx, queue.RKReservationCreated, ev); err != nil {
			// Committed state wins; the event loss is the documented
			// publish-after-commit gap.
			log.Printf("reserve: publish %s failed for %s: %v", queue.RKReservationCreated, res.ID, err)
		}
	}

	ids := make([]string, len(reservations))
	for i, res := range reservations {
		ids[i] = res.ID
	}
	resp := ReserveResponse{
		Message:          "seats reserved, awaiting payment",
		ReservationIDs:   ids,
		ExpiresAt:        expiresAt.Format(time.RFC3339),
		ExpiresInSeconds: int(r.reservationTTL / time.Second),
	}
	body, err := json.Marshal(resp)
	if err != nil {
		return nil, Internal("response encoding failed", err)
	}
	return body, nil
}

// dedupe drops empty and repeated ids while preserving first-seen order
// (ordering is re-established by the sort in reserve anyway).
func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// notAvailable lists the human-readable labels of seats whose persisted
// status is not AVAILABLE.
func notAvailable(seats []model.Seat) []string {
	var out []string
	for _, s := range seats {
		if s.Status != model.SeatAvailable {
			out = append(out, fmt.Sprintf("%s%d", s.Row, s.Number))
		}
	}
	return out
}
