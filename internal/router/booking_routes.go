package router

import (
	"github.com/labstack/echo/v4"

	"github.com/hdfuturetech/cinema-booking/internal/handler"
	"github.com/hdfuturetech/cinema-booking/internal/middleware"
	"github.com/hdfuturetech/cinema-booking/internal/model"
)

// RegisterBookings registers /api/bookings.  Seat checks are public; every
// other endpoint requires a valid access token, and payment updates
// additionally require the admin role.  limit guards the two endpoints
// that hit the seat table hardest.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/api/bookings")

	// registered before /:id so the static segment wins
	g.POST("/check-seats", h.CheckSeats, limit)

	protect := middleware.Protect(jwtSecret)
	g.POST("", h.Create, protect, limit)
	g.GET("", h.List, protect)
	g.GET("/:id", h.Get, protect)
	g.PUT("/:id", h.UpdateStatus, protect)
	g.PUT("/:id/payment", h.UpdatePayment, protect, middleware.RequireRole(model.RoleAdmin))
}
