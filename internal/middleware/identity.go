package middleware

// identity.go holds the context keys shared by the auth, role and rate
// limit middleware, plus accessors for the authenticated principal.

import (
    "github.com/labstack/echo/v4"

    "github.com/hdfuturetech/cinema-booking/internal/model"
)

const (
    principalKey = "principal"
    userIDKey    = "user_id"
    roleKey      = "role"
)

// SetPrincipal attaches p to the request context.
func SetPrincipal(c echo.Context, p model.Principal) {
    c.Set(principalKey, p)
    c.Set(userIDKey, p.ID)
    c.Set(roleKey, p.Role)
}

// PrincipalFrom returns the principal set by Protect, if any.
func PrincipalFrom(c echo.Context) (model.Principal, bool) {
    p, ok := c.Get(principalKey).(model.Principal)
    return p, ok && p.ID != ""
}

// currentUserID returns the authenticated user's id or "anon".
func currentUserID(c echo.Context) string {
    if p, ok := PrincipalFrom(c); ok {
        return p.ID
    }
    return "anon"
}

func deny(c echo.Context, status int, msg string) error {
    return c.JSON(status, echo.Map{"success": false, "message": msg})
}
