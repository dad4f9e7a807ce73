// Package handler contains the thin HTTP layer over the reservation
// engine.  Handlers bind and validate transport concerns only; every
// decision about seats, locks and money lives in the service layer.
package handler

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticketing/internal/service"
)

// writeError maps a service error kind to its HTTP status.  Internal
// causes are logged, never echoed to clients.
func writeError(c echo.Context, err error) error {
	switch service.KindOf(err) {
	case service.KindNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case service.KindConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case service.KindBadRequest:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		log.Printf("handler: %s %s failed: %v", c.Request().Method, c.Path(), err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
