// Package queue defines the event bus topology and the message payloads
// exchanged over it.  The engine publishes four events on the
// cinema_events topic exchange; consumer failures are routed through
// cinema_retry with exponential backoff and terminate in cinema_dlq.
package queue

// Routing keys for the core events.
const (
	RKReservationCreated = "reservation.created"
	RKPaymentConfirmed   = "payment.confirmed"
	RKReservationExpired = "reservation.expired"
	RKSeatReleased       = "seat.released"
)

// ReservationCreatedEvent is published once per newly-created PENDING
// reservation.
type ReservationCreatedEvent struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	SeatID    string `json:"seatId"`
	Status    string `json:"status"`
	ExpiresAt string `json:"expiresAt"`
}

// PaymentConfirmedEvent is published once per successful confirmation.
// Amount is a decimal string equal to the session price charged.
type PaymentConfirmedEvent struct {
	ReservationID string `json:"reservationId"`
	UserID        string `json:"userId"`
	SeatID        string `json:"seatId"`
	Amount        string `json:"amount"`
	Timestamp     string `json:"timestamp"`
}

// ReservationExpiredEvent is published once per reservation the reaper
// actually transitioned to CANCELLED.
type ReservationExpiredEvent struct {
	ReservationID string `json:"reservationId"`
	SeatID        string `json:"seatId"`
	UserID        string `json:"userId"`
	Reason        string `json:"reason"`
	Timestamp     string `json:"timestamp"`
}

// SeatReleasedEvent is published alongside ReservationExpiredEvent so
// seat-centric consumers need not join on reservations.
type SeatReleasedEvent struct {
	SeatID        string `json:"seatId"`
	ReservationID string `json:"reservationId"`
	UserID        string `json:"userId"`
	Reason        string `json:"reason"`
	Timestamp     string `json:"timestamp"`
}

// Reason strings carried by the expiration events.
const (
	ReasonTimeout            = "TIMEOUT"
	ReasonReservationExpired = "RESERVATION_EXPIRED"
)
