package model

import "time"

// Reservation status values.  A reservation is created PENDING and
// transitions exactly once: to CONFIRMED by payment or to CANCELLED by
// the expiration reaper (or by a confirmation attempt after the TTL).
// CONFIRMED and CANCELLED are terminal.
const (
	ReservationPending   = "PENDING"
	ReservationConfirmed = "CONFIRMED"
	ReservationCancelled = "CANCELLED"
)

// Reservation records a user's claim on a single seat.  A request for N
// seats produces N independent reservation rows created atomically in
// one transaction.
//
// Fields:
//  ID        – primary key identifier (UUID string).
//  UserID    – user who made the reservation.
//  SeatID    – seat being reserved.
//  Status    – PENDING, CONFIRMED or CANCELLED.
//  ExpiresAt – after this instant an unpaid reservation may be reaped.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Reservation struct {
	ID        string    `json:"id"`         // reservations.id
	UserID    string    `json:"user_id"`    // reservations.user_id
	SeatID    string    `json:"seat_id"`    // reservations.seat_id
	Status    string    `json:"status"`     // reservations.status
	ExpiresAt time.Time `json:"expires_at"` // reservations.expires_at
	CreatedAt time.Time `json:"created_at"` // reservations.created_at
	UpdatedAt time.Time `json:"updated_at"` // reservations.updated_at
}

// ReservationDetail joins a reservation with its seat and session.  It
// is what the confirm-payment flow loads in one query: the seat is
// needed for the SOLD transition and the session carries the price
// charged at confirmation time.
type ReservationDetail struct {
	Reservation
	SeatStatus   string `json:"seat_status"`
	SeatRow      string `json:"seat_row"`
	SeatNumber   uint32 `json:"seat_number"`
	SessionID    string `json:"session_id"`
	SessionPrice string `json:"session_price"`
}

// ExpiredReservation is the slim projection used by the reaper: just
// enough to cancel the row, release the seat lock and emit events.
type ExpiredReservation struct {
	ID     string
	SeatID string
	UserID string
}
