package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-ticketing/internal/model"
)

// UpsertSale records the money side of a confirmed reservation.  The
// unique key on reservation_id turns a re-execution after a transient
// failure into an update of the same row instead of a duplicate sale.
func (t *Tx) UpsertSale(ctx context.Context, reservationID, amount string) error {
	const q = `INSERT INTO sales (id, reservation_id, amount, payment_method)
	           VALUES (?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE amount = VALUES(amount)`
	_, err := t.tx.ExecContext(ctx, q, uuid.NewString(), reservationID, amount, model.PaymentCreditCard)
	return err
}
