package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticketing/internal/service"
)

// SessionHandler exposes the session catalog: creating a screening with
// its seat grid and reading seat availability.
type SessionHandler struct {
	svc *service.Reservations
}

// NewSessionHandler constructs a SessionHandler.
func NewSessionHandler(svc *service.Reservations) *SessionHandler {
	if svc == nil {
		panic("nil service passed to NewSessionHandler")
	}
	return &SessionHandler{svc: svc}
}

// Create handles POST /v1/sessions.
func (h *SessionHandler) Create(c echo.Context) error {
	var in service.CreateSessionInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	session, seats, err := h.svc.CreateSession(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"session": session,
		"seats":   seats,
	})
}

// Seats handles GET /v1/sessions/:id/seats.  Seat statuses are the
// computed view: AVAILABLE seats with a live lock key are presented as
// LOCKED even though the database never stores that value.
func (h *SessionHandler) Seats(c echo.Context) error {
	seats, err := h.svc.SessionSeats(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": seats})
}
