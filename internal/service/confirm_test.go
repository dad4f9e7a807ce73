package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticketing/internal/lock"
	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/queue"
)

// seedPendingReservation sets up a session at 25.00 with one AVAILABLE
// seat, a PENDING reservation expiring one minute after the fixed test
// clock, and the user's live seat lock.
func seedPendingReservation(store *fakeStore, locks *fakeLocker) {
	store.addSession("sess1", "25.00")
	store.addSeat("s1", "sess1", "A", 1, model.SeatAvailable)
	store.addReservation("r1", "u1", "s1", model.ReservationPending,
		time.Date(2026, 8, 24, 12, 1, 0, 0, time.UTC))
	locks.plant(lock.SeatKey("s1"), "u1")
}

func TestConfirmHappyPath(t *testing.T) {
	store, locks, idem, bus := newFakeStore(), newFakeLocker(), newFakeIdem(), newFakeBus()
	seedPendingReservation(store, locks)
	r := newTestReservations(store, locks, idem, bus)

	resp, err := r.Confirm(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", resp.ReservationID)
	assert.Equal(t, "s1", resp.SeatID)
	assert.Equal(t, model.ReservationConfirmed, resp.Status)
	assert.Equal(t, "25.00", resp.Amount)

	assert.Equal(t, model.ReservationConfirmed, store.reservations["r1"].Status)
	assert.Equal(t, model.SeatSold, store.seats["s1"].Status)
	assert.Equal(t, "25.00", store.sales["r1"])
	assert.False(t, locks.held(lock.SeatKey("s1")))

	confirmed := bus.byKey(queue.RKPaymentConfirmed)
	require.Len(t, confirmed, 1)
	ev := confirmed[0].event.(queue.PaymentConfirmedEvent)
	assert.Equal(t, "r1", ev.ReservationID)
	assert.Equal(t, "25.00", ev.Amount)
}

func TestConfirmUnknownReservationIsNotFound(t *testing.T) {
	store, locks, idem, bus := newFakeStore(), newFakeLocker(), newFakeIdem(), newFakeBus()
	r := newTestReservations(store, locks, idem, bus)

	_, err := r.Confirm(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestConfirmTwiceIsConflictAndEmitsNoFurtherEvents(t *testing.T) {
	store, locks, idem, bus := newFakeStore(), newFakeLocker(), newFakeIdem(), newFakeBus()
	seedPendingReservation(store, locks)
	r := newTestReservations(store, locks, idem, bus)

	_, err := r.Confirm(context.Background(), "r1")
	require.NoError(t, err)
	eventsAfterFirst := bus.count()

	_, err = r.Confirm(context.Background(), "r1")
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Contains(t, err.Error(), "already paid")
	assert.Equal(t, eventsAfterFirst, bus.count())
	assert.Len(t, store.sales, 1)
}

func TestConfirmCancelledReservationIsBadRequest(t *testing.T) {
	store, locks, idem, bus := newFakeStore(), newFakeLocker(), newFakeIdem(), newFakeBus()
	seedPendingReservation(store, locks)
	store.reservations["r1"].Status = model.ReservationCancelled
	r := newTestReservations(store, locks, idem, bus)

	_, err := r.Confirm(context.Background(), "r1")
	require.Error(t, err)
	assert.Equal(t, KindBadRequest, KindOf(err))
}

func TestConfirmAfterExpiryCancelsAsSideEffect(t *testing.T) {
	store, locks, idem, bus := newFakeStore(), newFakeLocker(), newFakeIdem(), newFakeBus()
	seedPendingReservation(store, locks)
	store.reservations["r1"].ExpiresAt = time.Date(2026, 8, 24, 11, 59, 0, 0, time.UTC)
	r := newTestReservations(store, locks, idem, bus)

	_, err := r.Confirm(context.Background(), "r1")
	require.Error(t, err)
	assert.Equal(t, KindBadRequest, KindOf(err))
	assert.Contains(t, err.Error(), "expired")

	assert.Equal(t, model.ReservationCancelled, store.reservations["r1"].Status)
	assert.Equal(t, model.SeatAvailable, store.seats["s1"].Status)
	assert.Empty(t, store.sales)
	assert.Equal(t, 0, bus.count())
}

func TestConfirmClassifiesConcurrentConfirmation(t *testing.T) {
	store, locks, idem, bus := newFakeStore(), newFakeLocker(), newFakeIdem(), newFakeBus()
	seedPendingReservation(store, locks)
	r := newTestReservations(store, locks, idem, bus)

	// Another worker wins the transition between the load and the
	// transaction; the zero-row conditional update is reclassified by a
	// reload.
	store.beforeTx = func() {
		store.mu.Lock()
		store.reservations["r1"].Status = model.ReservationConfirmed
		store.mu.Unlock()
	}

	_, err := r.Confirm(context.Background(), "r1")
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Contains(t, err.Error(), "already paid")
	assert.Equal(t, 0, bus.count())
}

func TestConfirmSoldSeatRollsBackTransaction(t *testing.T) {
	store, locks, idem, bus := newFakeStore(), newFakeLocker(), newFakeIdem(), newFakeBus()
	seedPendingReservation(store, locks)
	store.seats["s1"].Status = model.SeatSold
	r := newTestReservations(store, locks, idem, bus)

	_, err := r.Confirm(context.Background(), "r1")
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Contains(t, err.Error(), "seat already sold")

	// The confirm that succeeded inside the aborted transaction must not
	// stick.
	assert.Equal(t, model.ReservationPending, store.reservations["r1"].Status)
	assert.Empty(t, store.sales)
	assert.Equal(t, 0, bus.count())
}
