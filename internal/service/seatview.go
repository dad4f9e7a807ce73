package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cinema-ticketing/internal/lock"
	"github.com/iliyamo/cinema-ticketing/internal/model"
)

// SessionSeats returns every seat of a session with the client-facing
// status.  LOCKED is never persisted: an AVAILABLE seat is presented as
// LOCKED exactly when its lock key is live in the coordination store.
// The lock values are read in one batched call preserving index order.
func (r *Reservations) SessionSeats(ctx context.Context, sessionID string) ([]model.Seat, error) {
	if _, err := r.store.SessionByID(ctx, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFound("session not found")
		}
		return nil, Internal("session lookup failed", err)
	}
	seats, err := r.store.SeatsBySession(ctx, sessionID)
	if err != nil {
		return nil, Internal("seat lookup failed", err)
	}

	// Only AVAILABLE seats can appear LOCKED; SOLD is terminal.
	keys := make([]string, 0, len(seats))
	idx := make([]int, 0, len(seats))
	for i, s := range seats {
		if s.Status == model.SeatAvailable {
			keys = append(keys, lock.SeatKey(s.ID))
			idx = append(idx, i)
		}
	}
	if len(keys) == 0 {
		return seats, nil
	}
	_, present, err := r.locks.GetMany(ctx, keys)
	if err != nil {
		return nil, Internal("lock store read failed", err)
	}
	for j, i := range idx {
		if present[j] {
			seats[i].Status = model.SeatLocked
		}
	}
	return seats, nil
}
