package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-ticketing/internal/idempotency"
	"github.com/iliyamo/cinema-ticketing/internal/model"
)

// fakeStore is an in-memory stand-in for the MySQL repository.  Its
// conditional updates mirror the real statements: they check and
// transition state under one mutex and report affected-row counts.
type fakeStore struct {
	mu           sync.Mutex
	sessions     map[string]*model.Session
	seats        map[string]*model.Seat
	reservations map[string]*model.Reservation
	sales        map[string]string // reservation id -> amount

	insertErr error

	// beforeTx runs at the start of InTx, outside the snapshot, so tests
	// can interleave a concurrent transition between load and commit.
	beforeTx func()
	// beforeCancelExpired runs inside CancelExpired before the updates.
	beforeCancelExpired func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions:     make(map[string]*model.Session),
		seats:        make(map[string]*model.Seat),
		reservations: make(map[string]*model.Reservation),
		sales:        make(map[string]string),
	}
}

func (f *fakeStore) addSession(id, price string) {
	f.sessions[id] = &model.Session{ID: id, MovieID: "m1", Room: "1", Price: price}
}

func (f *fakeStore) addSeat(id, sessionID, row string, number uint32, status string) {
	f.seats[id] = &model.Seat{ID: id, SessionID: sessionID, Row: row, Number: number, Status: status}
}

func (f *fakeStore) addReservation(id, userID, seatID, status string, expiresAt time.Time) {
	f.reservations[id] = &model.Reservation{
		ID: id, UserID: userID, SeatID: seatID, Status: status, ExpiresAt: expiresAt,
	}
}

func (f *fakeStore) SeatsByIDs(_ context.Context, ids []string) ([]model.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Seat, 0, len(ids))
	for _, id := range ids {
		if s, ok := f.seats[id]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStore) SeatsBySession(_ context.Context, sessionID string) ([]model.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Seat
	for _, s := range f.seats {
		if s.SessionID == sessionID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Number < out[j].Number
	})
	return out, nil
}

func (f *fakeStore) SessionByID(_ context.Context, id string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) CreateSessionWithSeats(_ context.Context, movieID, room, price string, startsAt time.Time, rowLabels []string, seatsPerRow int) (*model.Session, []model.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess := &model.Session{ID: uuid.NewString(), MovieID: movieID, Room: room, Price: price, StartsAt: startsAt}
	f.sessions[sess.ID] = sess
	var seats []model.Seat
	for _, row := range rowLabels {
		for n := 1; n <= seatsPerRow; n++ {
			st := model.Seat{ID: uuid.NewString(), SessionID: sess.ID, Row: row, Number: uint32(n), Status: model.SeatAvailable}
			f.seats[st.ID] = &st
			seats = append(seats, st)
		}
	}
	cp := *sess
	return &cp, seats, nil
}

func (f *fakeStore) ReservationDetail(_ context.Context, id string) (*model.ReservationDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	d := &model.ReservationDetail{Reservation: *r}
	if seat, ok := f.seats[r.SeatID]; ok {
		d.SeatStatus = seat.Status
		d.SeatRow = seat.Row
		d.SeatNumber = seat.Number
		if sess, ok := f.sessions[seat.SessionID]; ok {
			d.SessionID = sess.ID
			d.SessionPrice = sess.Price
		}
	}
	return d, nil
}

func (f *fakeStore) CancelPending(_ context.Context, id string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok || r.Status != model.ReservationPending {
		return 0, nil
	}
	r.Status = model.ReservationCancelled
	return 1, nil
}

func (f *fakeStore) CancelExpired(_ context.Context, ids []string, now time.Time) (int64, error) {
	if f.beforeCancelExpired != nil {
		f.beforeCancelExpired()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, id := range ids {
		r, ok := f.reservations[id]
		if ok && r.Status == model.ReservationPending && r.ExpiresAt.Before(now) {
			r.Status = model.ReservationCancelled
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) ListExpiredPending(_ context.Context, now time.Time) ([]model.ExpiredReservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ExpiredReservation
	for _, r := range f.reservations {
		if r.Status == model.ReservationPending && r.ExpiresAt.Before(now) {
			out = append(out, model.ExpiredReservation{ID: r.ID, SeatID: r.SeatID, UserID: r.UserID})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// InTx snapshots the mutable tables and restores them when fn fails,
// mimicking a rolled-back transaction.
func (f *fakeStore) InTx(_ context.Context, fn func(tx Tx) error) error {
	if f.beforeTx != nil {
		f.beforeTx()
	}
	f.mu.Lock()
	seats := make(map[string]*model.Seat, len(f.seats))
	for k, v := range f.seats {
		cp := *v
		seats[k] = &cp
	}
	reservations := make(map[string]*model.Reservation, len(f.reservations))
	for k, v := range f.reservations {
		cp := *v
		reservations[k] = &cp
	}
	sales := make(map[string]string, len(f.sales))
	for k, v := range f.sales {
		sales[k] = v
	}
	f.mu.Unlock()

	if err := fn(&fakeTx{store: f}); err != nil {
		f.mu.Lock()
		f.seats = seats
		f.reservations = reservations
		f.sales = sales
		f.mu.Unlock()
		return err
	}
	return nil
}

type fakeTx struct {
	store *fakeStore
}

func (t *fakeTx) CreateReservations(_ context.Context, userID string, seatIDs []string, expiresAt time.Time) ([]model.Reservation, error) {
	f := t.store
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Reservation, 0, len(seatIDs))
	for _, sid := range seatIDs {
		r := model.Reservation{
			ID: uuid.NewString(), UserID: userID, SeatID: sid,
			Status: model.ReservationPending, ExpiresAt: expiresAt,
		}
		f.reservations[r.ID] = &r
		out = append(out, r)
	}
	return out, nil
}

func (t *fakeTx) ConditionalConfirm(_ context.Context, id string, now time.Time) (int64, error) {
	f := t.store
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok || r.Status != model.ReservationPending || r.ExpiresAt.Before(now) {
		return 0, nil
	}
	r.Status = model.ReservationConfirmed
	return 1, nil
}

func (t *fakeTx) ConditionalSellSeat(_ context.Context, seatID string) (int64, error) {
	f := t.store
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.seats[seatID]
	if !ok || s.Status != model.SeatAvailable {
		return 0, nil
	}
	s.Status = model.SeatSold
	return 1, nil
}

func (t *fakeTx) UpsertSale(_ context.Context, reservationID, amount string) error {
	f := t.store
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sales[reservationID] = amount
	return nil
}

// fakeLocker is an in-memory set-if-absent lock table with the same
// owner-checked release semantics as the Redis implementation.
type fakeLocker struct {
	mu   sync.Mutex
	vals map[string]string
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{vals: make(map[string]string)}
}

func (l *fakeLocker) Acquire(_ context.Context, key, owner string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.vals[key]; held {
		return false, nil
	}
	l.vals[key] = owner
	return true, nil
}

func (l *fakeLocker) Release(_ context.Context, key, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.vals[key] == owner {
		delete(l.vals, key)
	}
	return nil
}

func (l *fakeLocker) ReleaseAll(_ context.Context, keys ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, k := range keys {
		delete(l.vals, k)
	}
	return nil
}

func (l *fakeLocker) GetMany(_ context.Context, keys []string) ([]string, []bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	vals := make([]string, len(keys))
	present := make([]bool, len(keys))
	for i, k := range keys {
		vals[i], present[i] = l.vals[k]
	}
	return vals, present, nil
}

func (l *fakeLocker) held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.vals[key]
	return ok
}

func (l *fakeLocker) plant(key, owner string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.vals[key] = owner
}

func (l *fakeLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.vals)
}

// fakeIdem implements the two-phase cache without polling delays.
type fakeIdem struct {
	mu      sync.Mutex
	bodies  map[string][]byte
	pending map[string]bool
}

func newFakeIdem() *fakeIdem {
	return &fakeIdem{bodies: make(map[string][]byte), pending: make(map[string]bool)}
}

func (s *fakeIdem) Claim(_ context.Context, key string) (idempotency.Outcome, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if body, ok := s.bodies[key]; ok {
		return idempotency.Hit, body, nil
	}
	if s.pending[key] {
		return idempotency.Pending, nil, nil
	}
	s.pending[key] = true
	return idempotency.FirstWriter, nil, nil
}

func (s *fakeIdem) Await(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if body, ok := s.bodies[key]; ok {
		return body, nil
	}
	return nil, idempotency.ErrInFlight
}

func (s *fakeIdem) Store(_ context.Context, key string, response []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies[key] = response
	delete(s.pending, key)
	return nil
}

func (s *fakeIdem) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bodies, key)
	delete(s.pending, key)
	return nil
}

// fakeBus records published events in order.
type fakeBus struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	routingKey string
	event      any
}

func newFakeBus() *fakeBus { return &fakeBus{} }

func (b *fakeBus) Publish(_ context.Context, routingKey string, event any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, publishedEvent{routingKey: routingKey, event: event})
	return nil
}

func (b *fakeBus) byKey(routingKey string) []publishedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []publishedEvent
	for _, e := range b.events {
		if e.routingKey == routingKey {
			out = append(out, e)
		}
	}
	return out
}

func (b *fakeBus) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}
