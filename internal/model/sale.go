package model

import "time"

// Payment method values accepted on a sale.  CREDIT_CARD is the
// database default.
const (
	PaymentCreditCard = "CREDIT_CARD"
	PaymentDebitCard  = "DEBIT_CARD"
	PaymentPix        = "PIX"
	PaymentCash       = "CASH"
)

// Sale records the money side of a confirmed reservation.  Exactly one
// sale exists per CONFIRMED reservation; the unique constraint on
// ReservationID makes re-execution of the confirm transaction safe.
//
// Fields:
//  ID            – primary key identifier (UUID string).
//  ReservationID – the confirmed reservation (unique).
//  Amount        – decimal string equal to the session price at confirmation.
//  PaymentMethod – one of CREDIT_CARD, DEBIT_CARD, PIX, CASH.
//  CreatedAt     – creation timestamp.
type Sale struct {
	ID            string    `json:"id"`             // sales.id
	ReservationID string    `json:"reservation_id"` // sales.reservation_id
	Amount        string    `json:"amount"`         // sales.amount
	PaymentMethod string    `json:"payment_method"` // sales.payment_method
	CreatedAt     time.Time `json:"created_at"`     // sales.created_at
}
