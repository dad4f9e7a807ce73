package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticketing/internal/model"
)

func TestCreateSessionBuildsSeatGrid(t *testing.T) {
	store, locks, idem, bus := newFakeStore(), newFakeLocker(), newFakeIdem(), newFakeBus()
	r := newTestReservations(store, locks, idem, bus)

	sess, seats, err := r.CreateSession(context.Background(), CreateSessionInput{
		MovieID:     "m1",
		Room:        "imax-1",
		Price:       "25.00",
		StartsAt:    time.Date(2026, 8, 25, 20, 0, 0, 0, time.UTC),
		RowLabels:   []string{"A", "B"},
		SeatsPerRow: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "25.00", sess.Price)
	require.Len(t, seats, 6)
	for _, s := range seats {
		assert.Equal(t, model.SeatAvailable, s.Status)
		assert.Equal(t, sess.ID, s.SessionID)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	store, locks, idem, bus := newFakeStore(), newFakeLocker(), newFakeIdem(), newFakeBus()
	r := newTestReservations(store, locks, idem, bus)

	base := CreateSessionInput{
		MovieID:     "m1",
		Room:        "1",
		Price:       "25.00",
		StartsAt:    time.Date(2026, 8, 25, 20, 0, 0, 0, time.UTC),
		RowLabels:   []string{"A"},
		SeatsPerRow: 2,
	}

	cases := []struct {
		name   string
		mutate func(*CreateSessionInput)
	}{
		{"missing movie", func(in *CreateSessionInput) { in.MovieID = "" }},
		{"missing room", func(in *CreateSessionInput) { in.Room = "" }},
		{"price below minimum", func(in *CreateSessionInput) { in.Price = "0.99" }},
		{"price not a decimal", func(in *CreateSessionInput) { in.Price = "25.001" }},
		{"starts in the past", func(in *CreateSessionInput) { in.StartsAt = time.Date(2026, 8, 24, 11, 0, 0, 0, time.UTC) }},
		{"no rows", func(in *CreateSessionInput) { in.RowLabels = nil }},
		{"no seats per row", func(in *CreateSessionInput) { in.SeatsPerRow = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := base
			tc.mutate(&in)
			_, _, err := r.CreateSession(context.Background(), in)
			require.Error(t, err)
			assert.Equal(t, KindBadRequest, KindOf(err))
		})
	}
}
