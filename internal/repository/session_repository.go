package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-ticketing/internal/model"
)

// CreateSessionWithSeats inserts a session together with its full seat
// grid in one transaction: one seat per (row, number) pair, all
// AVAILABLE.  The grid is all-or-nothing so a session never exists with
// a partial room.
func (s *Store) CreateSessionWithSeats(ctx context.Context, movieID, room, price string, startsAt time.Time, rowLabels []string, seatsPerRow int) (*model.Session, []model.Seat, error) {
	now := time.Now().UTC()
	session := &model.Session{
		ID:        uuid.NewString(),
		MovieID:   movieID,
		Room:      room,
		Price:     price,
		StartsAt:  startsAt.UTC(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	seats := make([]model.Seat, 0, len(rowLabels)*seatsPerRow)
	for _, row := range rowLabels {
		for n := 1; n <= seatsPerRow; n++ {
			seats = append(seats, model.Seat{
				ID:        uuid.NewString(),
				SessionID: session.ID,
				Row:       row,
				Number:    uint32(n),
				Status:    model.SeatAvailable,
			})
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	const sessionQ = `INSERT INTO sessions (id, movie_id, room, price, starts_at, created_at, updated_at)
	                  VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, sessionQ,
		session.ID, session.MovieID, session.Room, session.Price,
		session.StartsAt, session.CreatedAt, session.UpdatedAt,
	); err != nil {
		return nil, nil, err
	}
	if len(seats) > 0 {
		query := "INSERT INTO seats (id, session_id, `row`, `number`, status) VALUES "
		args := make([]interface{}, 0, len(seats)*5)
		for i, st := range seats {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?, ?)"
			args = append(args, st.ID, st.SessionID, st.Row, st.Number, st.Status)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return nil, nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	committed = true
	return session, seats, nil
}

// SessionByID loads a single session.  Returns sql.ErrNoRows when the
// id is unknown.
func (s *Store) SessionByID(ctx context.Context, id string) (*model.Session, error) {
	const q = `SELECT id, movie_id, room, price, starts_at, created_at, updated_at FROM sessions WHERE id = ?`
	var sess model.Session
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&sess.ID, &sess.MovieID, &sess.Room, &sess.Price,
		&sess.StartsAt, &sess.CreatedAt, &sess.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}
