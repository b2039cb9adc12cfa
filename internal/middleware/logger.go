package middleware

import (
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

// RequestID assigns every request a UUID, honouring an X-Request-ID
// header the client already sent.
func RequestID() echo.MiddlewareFunc {
    return echomw.RequestIDWithConfig(echomw.RequestIDConfig{
        Generator: uuid.NewString,
    })
}

// RequestLogger writes one structured line per request to log.  Server
// errors are logged at error level, client errors at warn.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
    return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogMethod:    true,
        LogURI:       true,
        LogStatus:    true,
        LogLatency:   true,
        LogRemoteIP:  true,
        LogRequestID: true,
        LogError:     true,
        HandleError:  true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            level := zapcore.InfoLevel
            switch {
            case v.Status >= 500:
                level = zapcore.ErrorLevel
            case v.Status >= 400:
                level = zapcore.WarnLevel
            }
            fields := []zap.Field{
                zap.String("method", v.Method),
                zap.String("uri", v.URI),
                zap.Int("status", v.Status),
                zap.Duration("latency", v.Latency.Round(time.Microsecond)),
                zap.String("remote_ip", v.RemoteIP),
                zap.String("request_id", v.RequestID),
                zap.String("user_id", currentUserID(c)),
            }
            if v.Error != nil {
                fields = append(fields, zap.Error(v.Error))
            }
            log.Log(level, "request", fields...)
            return nil
        },
    })
}
