package service

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/iliyamo/cinema-ticketing/internal/lock"
	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/queue"
)

// Sentinels distinguishing why the confirm transaction aborted.  They
// never leave this file; the caller reloads and classifies.
var (
	errStaleReservation = errors.New("reservation transitioned concurrently")
	errSeatAlreadySold  = errors.New("seat already sold")
)

// ConfirmResponse is returned to the client after a successful payment.
type ConfirmResponse struct {
	Message       string `json:"message"`
	ReservationID string `json:"reservationId"`
	SeatID        string `json:"seatId"`
	Status        string `json:"status"`
	Amount        string `json:"amount"`
}

// Confirm executes the payment confirmation transaction.  The two
// conditional updates plus the sale upsert run in one database
// transaction, which is the single linearization point for the
// CONFIRMED and SOLD transitions: no external lock is held, and a
// count of zero on either update means another worker got there first.
func (r *Reservations) Confirm(ctx context.Context, reservationID string) (*ConfirmResponse, error) {
	if reservationID == "" {
		return nil, BadRequest("reservationId is required")
	}
	d, err := r.store.ReservationDetail(ctx, reservationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFound("reservation not found")
	}
	if err != nil {
		return nil, Internal("reservation lookup failed", err)
	}

	switch d.Status {
	case model.ReservationConfirmed:
		return nil, Conflict("reservation already paid")
	case model.ReservationCancelled:
		return nil, BadRequest("reservation cancelled or expired")
	}

	now := r.now()
	if now.After(d.ExpiresAt) {
		// Close out the expired row as a side effect of the rejected
		// payment; the reaper would have done the same on its next tick.
		if _, err := r.store.CancelPending(ctx, reservationID); err != nil {
			log.Printf("confirm: expiry cancel of %s failed: %v", reservationID, err)
		}
		return nil, BadRequest("reservation expired")
	}

	err = r.store.InTx(ctx, func(tx Tx) error {
		n, err := tx.ConditionalConfirm(ctx, reservationID, now)
		if err != nil {
			return err
		}
		if n == 0 {
			return errStaleReservation
		}
		n, err = tx.ConditionalSellSeat(ctx, d.SeatID)
		if err != nil {
			return err
		}
		if n == 0 {
			return errSeatAlreadySold
		}
		return tx.UpsertSale(ctx, reservationID, d.SessionPrice)
	})
	switch {
	case errors.Is(err, errStaleReservation):
		return nil, r.classifyStale(ctx, reservationID)
	case errors.Is(err, errSeatAlreadySold):
		return nil, Conflict("seat already sold")
	case err != nil:
		return nil, Internal("confirmation transaction failed", err)
	}

	ev := queue.PaymentConfirmedEvent{
		ReservationID: reservationID,
		UserID:        d.UserID,
		SeatID:        d.SeatID,
		Amount:        d.SessionPrice,
		Timestamp:     now.Format(time.RFC3339),
	}
	if err := r.bus.Publish(ctx, queue.RKPaymentConfirmed, ev); err != nil {
		log.Printf("confirm: publish %s failed for %s: %v", queue.RKPaymentConfirmed, reservationID, err)
	}

	// Best-effort: the database already says SOLD, so a failed release
	// just leaves the key to expire at its TTL.
	if err := r.locks.Release(ctx, lock.SeatKey(d.SeatID), d.UserID); err != nil {
		log.Printf("confirm: seat lock release failed for %s: %v", d.SeatID, err)
	}

	return &ConfirmResponse{
		Message:       "payment confirmed",
		ReservationID: reservationID,
		SeatID:        d.SeatID,
		Status:        model.ReservationConfirmed,
		Amount:        d.SessionPrice,
	}, nil
}

// classifyStale reloads a reservation whose conditional confirm
// affected zero rows and maps what actually happened to the right
// client-facing error.
func (r *Reservations) classifyStale(ctx context.Context, reservationID string) error {
	d, err := r.store.ReservationDetail(ctx, reservationID)
	if err != nil {
		return Conflict("reservation state changed concurrently")
	}
	switch d.Status {
	case model.ReservationConfirmed:
		return Conflict("reservation already paid")
	case model.ReservationCancelled:
		return BadRequest("reservation cancelled or expired")
	default:
		return Conflict("reservation state changed concurrently")
	}
}
