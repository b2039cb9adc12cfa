package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/hdfuturetech/cinema-booking/internal/service"
)

const (
    msgServerError = "Server error"
    msgInvalidBody = "Invalid request body"
)

// fail writes the standard error body.
func fail(c echo.Context, status int, msg string) error {
    return c.JSON(status, echo.Map{"success": false, "message": msg})
}

// badBody reports a request body that could not be decoded.
func badBody(err error) error {
    return &service.Error{Kind: service.ErrValidation, Message: msgInvalidBody, Err: err}
}

// statusFor maps an error returned by a handler to a status code and a
// message that is safe to show to clients.
func statusFor(err error) (int, string) {
    var se *service.Error
    if errors.As(err, &se) {
        switch {
        case errors.Is(se.Kind, service.ErrNotFound):
            return http.StatusNotFound, se.Message
        case errors.Is(se.Kind, service.ErrForbidden):
            return http.StatusForbidden, se.Message
        case errors.Is(se.Kind, service.ErrValidation),
            errors.Is(se.Kind, service.ErrConflict),
            errors.Is(se.Kind, service.ErrInvalidTransition):
            return http.StatusBadRequest, se.Message
        }
    }
    var he *echo.HTTPError
    if errors.As(err, &he) {
        if he.Code >= http.StatusInternalServerError {
            return he.Code, msgServerError
        }
        if m, ok := he.Message.(string); ok && m != "" {
            return he.Code, m
        }
        return he.Code, http.StatusText(he.Code)
    }
    return http.StatusInternalServerError, msgServerError
}

// ErrorHandler renders every error that escapes a handler as
// {success:false,message}.  Unexpected errors are logged with the request
// id and reported to the client as a generic server error.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
    if log == nil {
        log = zap.NewNop()
    }
    return func(err error, c echo.Context) {
        if c.Response().Committed {
            return
        }
        status, msg := statusFor(err)
        if status >= http.StatusInternalServerError {
            log.Error("request failed",
                zap.Error(err),
                zap.String("method", c.Request().Method),
                zap.String("path", c.Path()),
                zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
            )
        }
        var werr error
        if c.Request().Method == http.MethodHead {
            werr = c.NoContent(status)
        } else {
            werr = fail(c, status, msg)
        }
        if werr != nil {
            log.Warn("write error response", zap.Error(werr))
        }
    }
}
