package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/hdfuturetech/cinema-booking/internal/handler"
	"github.com/hdfuturetech/cinema-booking/internal/middleware"
)

// RegisterRoutes registers the health probes.  db backs the readiness
// check.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
}

// RegisterAuth registers the account endpoints under /api/auth.  Register,
// login and refresh are public; logout and me need an access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// rotates the refresh token
	g.POST("/refresh", a.Refresh)

	protect := middleware.Protect(jwtSecret)
	g.POST("/logout", a.Logout, protect)
	g.GET("/me", a.Me, protect)
}
