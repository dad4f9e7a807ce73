package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-ticketing/internal/lock"
	"github.com/iliyamo/cinema-ticketing/internal/queue"
)

// Reaper cancels expired PENDING reservations and releases their seats.
// Every replica runs one on the same period; a short-TTL leader lock
// keeps in-flight reapers to approximately one, while the conditional
// cancel statement is the actual serializer; correctness never depends
// on the lock being exclusive.
type Reaper struct {
	store Store
	locks Locker
	bus   Publisher

	period  time.Duration
	lockTTL time.Duration

	now func() time.Time
}

// NewReaper builds a reaper.  lockTTL should be slightly shorter than
// period so a crashed leader never stalls the cluster beyond one tick.
func NewReaper(store Store, locks Locker, bus Publisher, period, lockTTL time.Duration) *Reaper {
	return &Reaper{
		store:   store,
		locks:   locks,
		bus:     bus,
		period:  period,
		lockTTL: lockTTL,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run ticks until ctx is cancelled.  Tick errors are logged and the
// loop continues; a broken tick must never take the replica down.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.period)
	defer ticker.Stop()
	log.Printf("reaper: running every %s", r.period)
	for {
		select {
		case <-ctx.Done():
			log.Printf("reaper: stopping: %v", ctx.Err())
			return
		case <-ticker.C:
			if n, err := r.Tick(ctx); err != nil {
				log.Printf("reaper: tick failed: %v", err)
			} else if n > 0 {
				log.Printf("reaper: cancelled %d expired reservations", n)
			}
		}
	}
}

// Tick performs one reap pass and returns how many reservations this
// replica actually cancelled.  Skipping when the leader lock is taken
// is not an error.
func (r *Reaper) Tick(ctx context.Context) (int, error) {
	// A fresh random token per tick; compare-and-delete release means a
	// stale leader can never delete a successor's claim.
	token := uuid.NewString()
	ok, err := r.locks.Acquire(ctx, lock.ReaperKey, token, r.lockTTL)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	defer func() {
		if err := r.locks.Release(ctx, lock.ReaperKey, token); err != nil {
			log.Printf("reaper: leader lock release failed: %v", err)
		}
	}()

	now := r.now()
	expired, err := r.store.ListExpiredPending(ctx, now)
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	ids := make([]string, len(expired))
	for i, e := range expired {
		ids[i] = e.ID
	}
	n, err := r.store.CancelExpired(ctx, ids, now)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		// Another leader already handled this batch.
		return 0, nil
	}
	if int(n) != len(expired) {
		log.Printf("reaper: %d of %d candidates already handled elsewhere", len(expired)-int(n), len(expired))
	}

	ts := now.Format(time.RFC3339)
	for _, e := range expired {
		if err := r.locks.ReleaseAll(ctx, lock.SeatKey(e.SeatID)); err != nil {
			log.Printf("reaper: seat lock delete failed for %s: %v", e.SeatID, err)
		}
		expiredEv := queue.ReservationExpiredEvent{
			ReservationID: e.ID,
			SeatID:        e.SeatID,
			UserID:        e.UserID,
			Reason:        queue.ReasonTimeout,
			Timestamp:     ts,
		}
		if err := r.bus.Publish(ctx, queue.RKReservationExpired, expiredEv); err != nil {
			log.Printf("reaper: publish %s failed for %s: %v", queue.RKReservationExpired, e.ID, err)
		}
		releasedEv := queue.SeatReleasedEvent{
			SeatID:        e.SeatID,
			ReservationID: e.ID,
			UserID:        e.UserID,
			Reason:        queue.ReasonReservationExpired,
			Timestamp:     ts,
		}
		if err := r.bus.Publish(ctx, queue.RKSeatReleased, releasedEv); err != nil {
			log.Printf("reaper: publish %s failed for %s: %v", queue.RKSeatReleased, e.SeatID, err)
		}
	}
	return int(n), nil
}
