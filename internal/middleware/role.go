package middleware // middleware provides shared request processing for handlers

import (
    "fmt"
    "net/http"

    "github.com/labstack/echo/v4"
)

// RequireRole rejects requests whose principal holds none of roles.  It
// must run after Protect; a request without a principal gets 401.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            p, ok := PrincipalFrom(c)
            if !ok {
                return deny(c, http.StatusUnauthorized, msgNotAuthorized)
            }
            if !allowed[p.Role] {
                return deny(c, http.StatusForbidden,
                    fmt.Sprintf("User role %s is not authorized to access this route", p.Role))
            }
            return next(c)
        }
    }
}
