package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/hdfuturetech/cinema-booking/internal/model"
    "github.com/hdfuturetech/cinema-booking/internal/utils"
)

const msgNotAuthorized = "Not authorized to access this route"

// Protect validates a Bearer access token and attaches the token's
// subject and role to the request as a model.Principal.  Requests without
// a valid token are rejected with 401 before reaching the handler.
func Protect(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get(echo.HeaderAuthorization)
            scheme, raw, ok := strings.Cut(auth, " ")
            if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
                return deny(c, http.StatusUnauthorized, msgNotAuthorized)
            }
            claims, err := utils.ParseAccessToken(secret, strings.TrimSpace(raw))
            if err != nil {
                return deny(c, http.StatusUnauthorized, msgNotAuthorized)
            }
            role := claims.Role
            if role == "" {
                role = model.RoleUser
            }
            SetPrincipal(c, model.Principal{ID: claims.Subject, Role: role})
            return next(c)
        }
    }
}
