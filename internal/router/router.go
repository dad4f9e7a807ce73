// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticketing/internal/handler"
)

// RegisterRoutes wires every endpoint of the service onto the provided
// Echo instance.  Write endpoints additionally pass through the given
// rate-limit middleware; reads and the health check do not.
func RegisterRoutes(e *echo.Echo, res *handler.ReservationHandler, ses *handler.SessionHandler, limit echo.MiddlewareFunc) {
	// Used by load balancers and monitoring to verify the service is up.
	e.GET("/healthz", handler.Health)

	v1 := e.Group("/v1")

	// Browse endpoints.  Seat availability includes the computed LOCKED
	// status so clients can render a live seat map.
	v1.GET("/sessions/:id/seats", ses.Seats)

	// Write endpoints sit behind the token bucket.
	w := v1.Group("", limit)
	w.POST("/sessions", ses.Create)
	w.POST("/reservations", res.Create)
	w.POST("/reservations/:id/confirm", res.Confirm)
}
