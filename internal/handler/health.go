package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

// Health is the liveness probe used by load balancers.  It always answers
// a plain "ok".
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
    PingContext(ctx context.Context) error
}

// Ready answers 503 while the database cannot be reached.
func Ready(db Pinger) echo.HandlerFunc {
    return func(c echo.Context) error {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        if err := db.PingContext(ctx); err != nil {
            return fail(c, http.StatusServiceUnavailable, "Database unavailable")
        }
        return c.String(http.StatusOK, "ready")
    }
}
