package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-ticketing/internal/model"
)

// CreateReservations inserts one PENDING reservation per seat in a
// single multi-row statement, so creation is all-or-nothing together
// with the surrounding transaction.  IDs are generated here and
// returned on the records.
func (t *Tx) CreateReservations(ctx context.Context, userID string, seatIDs []string, expiresAt time.Time) ([]model.Reservation, error) {
	if len(seatIDs) == 0 {
		return []model.Reservation{}, nil
	}
	now := time.Now().UTC()
	reservations := make([]model.Reservation, 0, len(seatIDs))
	query := `INSERT INTO reservations (id, user_id, seat_id, status, expires_at, created_at, updated_at) VALUES `
	args := make([]interface{}, 0, len(seatIDs)*7)
	for i, sid := range seatIDs {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?)"
		r := model.Reservation{
			ID:        uuid.NewString(),
			UserID:    userID,
			SeatID:    sid,
			Status:    model.ReservationPending,
			ExpiresAt: expiresAt.UTC(),
			CreatedAt: now,
			UpdatedAt: now,
		}
		args = append(args, r.ID, r.UserID, r.SeatID, r.Status, r.ExpiresAt, r.CreatedAt, r.UpdatedAt)
		reservations = append(reservations, r)
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return nil, err
	}
	return reservations, nil
}

// ReservationDetail loads a reservation joined with its seat and
// session.  Returns sql.ErrNoRows when the id is unknown.
func (s *Store) ReservationDetail(ctx context.Context, id string) (*model.ReservationDetail, error) {
	const q = `SELECT r.id, r.user_id, r.seat_id, r.status, r.expires_at, r.created_at, r.updated_at,
	                  st.status, st.` + "`row`, st.`number`" + `,
	                  se.id, se.price
	           FROM reservations r
	           JOIN seats st ON st.id = r.seat_id
	           JOIN sessions se ON se.id = st.session_id
	           WHERE r.id = ?`
	var d model.ReservationDetail
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.UserID, &d.SeatID, &d.Status, &d.ExpiresAt, &d.CreatedAt, &d.UpdatedAt,
		&d.SeatStatus, &d.SeatRow, &d.SeatNumber,
		&d.SessionID, &d.SessionPrice,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ConditionalConfirm transitions a reservation to CONFIRMED only while
// it is still PENDING and unexpired.  The affected-row count tells the
// caller whether this invocation performed the transition (1) or lost
// to a concurrent confirm/cancel (0).
func (t *Tx) ConditionalConfirm(ctx context.Context, id string, now time.Time) (int64, error) {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = ? WHERE id = ? AND status = ? AND expires_at >= ?`,
		model.ReservationConfirmed, now.UTC(), id, model.ReservationPending, now.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CancelPending flips a single reservation from PENDING to CANCELLED.
// Used when a confirmation attempt arrives after the TTL: the expired
// row is closed out as a side effect of the rejected payment.
func (s *Store) CancelPending(ctx context.Context, id string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		model.ReservationCancelled, time.Now().UTC(), id, model.ReservationPending,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CancelExpired cancels the given reservations in one statement,
// guarded by status and expiry so a row another worker already handled
// is skipped.  The affected-row count is the number of reservations
// this caller actually transitioned.
func (s *Store) CancelExpired(ctx context.Context, ids []string, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, 0, len(ids)+3)
	args = append(args, model.ReservationCancelled, time.Now().UTC())
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}
	args = append(args, model.ReservationPending, now.UTC())
	query := `UPDATE reservations SET status = ?, updated_at = ? WHERE id IN (` +
		strings.Join(placeholders, ",") + `) AND status = ? AND expires_at < ?`
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListExpiredPending returns the reservations the reaper should cancel:
// still PENDING with an expiry in the past.
func (s *Store) ListExpiredPending(ctx context.Context, now time.Time) ([]model.ExpiredReservation, error) {
	const q = `SELECT id, seat_id, user_id FROM reservations WHERE status = ? AND expires_at < ?`
	rows, err := s.db.QueryContext(ctx, q, model.ReservationPending, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var expired []model.ExpiredReservation
	for rows.Next() {
		var e model.ExpiredReservation
		if err := rows.Scan(&e.ID, &e.SeatID, &e.UserID); err != nil {
			return nil, err
		}
		expired = append(expired, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return expired, nil
}
