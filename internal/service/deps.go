package service

import (
	"context"
	"time"

	"github.com/iliyamo/cinema-ticketing/internal/idempotency"
	"github.com/iliyamo/cinema-ticketing/internal/model"
)

// Tx groups the write operations that must share one database
// transaction.  The affected-row counts returned by the conditional
// updates are the proofs the actions reason about: zero means another
// worker already performed the transition.
type Tx interface {
	CreateReservations(ctx context.Context, userID string, seatIDs []string, expiresAt time.Time) ([]model.Reservation, error)
	ConditionalConfirm(ctx context.Context, id string, now time.Time) (int64, error)
	ConditionalSellSeat(ctx context.Context, seatID string) (int64, error)
	UpsertSale(ctx context.Context, reservationID, amount string) error
}

// Store is the database capability injected into actions.  It is the
// source of truth; the coordination store is advisory and may lag.
type Store interface {
	SeatsByIDs(ctx context.Context, ids []string) ([]model.Seat, error)
	SeatsBySession(ctx context.Context, sessionID string) ([]model.Seat, error)
	SessionByID(ctx context.Context, id string) (*model.Session, error)
	CreateSessionWithSeats(ctx context.Context, movieID, room, price string, startsAt time.Time, rowLabels []string, seatsPerRow int) (*model.Session, []model.Seat, error)
	ReservationDetail(ctx context.Context, id string) (*model.ReservationDetail, error)
	CancelPending(ctx context.Context, id string) (int64, error)
	CancelExpired(ctx context.Context, ids []string, now time.Time) (int64, error)
	ListExpiredPending(ctx context.Context, now time.Time) ([]model.ExpiredReservation, error)
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Locker is the coordination-store capability: atomic set-if-absent
// locks with TTLs.  It makes no durability claim, so callers must
// tolerate keys disappearing; contention is ultimately decided by the
// database.
type Locker interface {
	Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, owner string) error
	ReleaseAll(ctx context.Context, keys ...string) error
	GetMany(ctx context.Context, keys []string) ([]string, []bool, error)
}

// IdempotencyCache is the two-phase response cache used by Reserve.
type IdempotencyCache interface {
	Claim(ctx context.Context, key string) (idempotency.Outcome, []byte, error)
	Await(ctx context.Context, key string) ([]byte, error)
	Store(ctx context.Context, key string, response []byte) error
	Delete(ctx context.Context, key string) error
}

// Publisher emits domain events to the bus.  Publishing happens after
// the database commit and is fire-and-forget: failures are logged by
// the implementation and never roll back committed state.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}
