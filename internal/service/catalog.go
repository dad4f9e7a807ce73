package service

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/iliyamo/cinema-ticketing/internal/model"
)

// priceRe accepts the numeric(10,2) shapes the schema stores.
var priceRe = regexp.MustCompile(`^\d{1,8}(\.\d{1,2})?$`)

// CreateSessionInput describes a screening plus the seat grid of its
// room: one seat per (row label, 1..SeatsPerRow) pair.
type CreateSessionInput struct {
	MovieID     string    `json:"movieId"`
	Room        string    `json:"room"`
	Price       string    `json:"price"`
	StartsAt    time.Time `json:"startsAt"`
	RowLabels   []string  `json:"rows"`
	SeatsPerRow int       `json:"seatsPerRow"`
}

// CreateSession validates and persists a session together with its
// seats.  The grid insert is all-or-nothing.
func (r *Reservations) CreateSession(ctx context.Context, in CreateSessionInput) (*model.Session, []model.Seat, error) {
	if in.MovieID == "" || in.Room == "" {
		return nil, nil, BadRequest("movieId and room are required")
	}
	if !validPrice(in.Price) {
		return nil, nil, BadRequest("price must be a decimal of at least 1")
	}
	if !in.StartsAt.After(r.now()) {
		return nil, nil, BadRequest("startsAt must be in the future")
	}
	if len(in.RowLabels) == 0 || in.SeatsPerRow < 1 {
		return nil, nil, BadRequest("rows and seatsPerRow are required")
	}
	session, seats, err := r.store.CreateSessionWithSeats(ctx, in.MovieID, in.Room, in.Price, in.StartsAt, in.RowLabels, in.SeatsPerRow)
	if err != nil {
		return nil, nil, Internal("session creation failed", err)
	}
	return session, seats, nil
}

func validPrice(p string) bool {
	if !priceRe.MatchString(p) {
		return false
	}
	v, err := strconv.ParseFloat(p, 64)
	return err == nil && v >= 1
}
