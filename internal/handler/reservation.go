package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticketing/internal/service"
)

// ReservationHandler exposes the reservation lifecycle over HTTP.
type ReservationHandler struct {
	svc *service.Reservations
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(svc *service.Reservations) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{svc: svc}
}

// Create handles POST /v1/reservations.  The optional Idempotency-Key
// header makes the request safely retryable: replays within the TTL
// receive the exact bytes of the first response, which is why the body
// is written with JSONBlob instead of re-marshalling.
func (h *ReservationHandler) Create(c echo.Context) error {
	var in service.ReserveInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	in.IdempotencyKey = c.Request().Header.Get("Idempotency-Key")

	body, err := h.svc.Reserve(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSONBlob(http.StatusCreated, body)
}

// Confirm handles POST /v1/reservations/:id/confirm, the payment
// confirmation for a single reservation.
func (h *ReservationHandler) Confirm(c echo.Context) error {
	resp, err := h.svc.Confirm(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}
