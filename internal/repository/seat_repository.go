package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/cinema-ticketing/internal/model"
)

// SeatsByIDs loads the given seats preserving no particular order.  IDs
// that do not exist are simply absent from the result; callers compare
// lengths to detect missing seats.
func (s *Store) SeatsByIDs(ctx context.Context, ids []string) ([]model.Seat, error) {
	if len(ids) == 0 {
		return []model.Seat{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	query := "SELECT id, session_id, `row`, `number`, status FROM seats WHERE id IN (" +
		strings.Join(placeholders, ",") + ")"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]model.Seat, 0, len(ids))
	for rows.Next() {
		var st model.Seat
		if err := rows.Scan(&st.ID, &st.SessionID, &st.Row, &st.Number, &st.Status); err != nil {
			return nil, err
		}
		seats = append(seats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}

// SeatsBySession returns every seat of a session ordered by row and
// number, with the status exactly as persisted (AVAILABLE or SOLD; the
// LOCKED view is computed by the service layer from the lock store).
func (s *Store) SeatsBySession(ctx context.Context, sessionID string) ([]model.Seat, error) {
	const q = "SELECT id, session_id, `row`, `number`, status FROM seats WHERE session_id = ? ORDER BY `row`, `number`"
	rows, err := s.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]model.Seat, 0)
	for rows.Next() {
		var st model.Seat
		if err := rows.Scan(&st.ID, &st.SessionID, &st.Row, &st.Number, &st.Status); err != nil {
			return nil, err
		}
		seats = append(seats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}

// ConditionalSellSeat flips a seat from AVAILABLE to SOLD and reports
// the affected-row count.  Zero means the seat was already sold; the
// WHERE clause is the proof of the transition.
func (t *Tx) ConditionalSellSeat(ctx context.Context, seatID string) (int64, error) {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE seats SET status = ? WHERE id = ? AND status = ?`,
		model.SeatSold, seatID, model.SeatAvailable,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
