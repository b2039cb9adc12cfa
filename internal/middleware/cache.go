package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/binary"
    "encoding/json"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/hdfuturetech/cinema-booking/internal/config"
)

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    size   int64
    limit  int64
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }

func (cw *captureWriter) Write(b []byte) (int, error) {
    if cw.limit <= 0 {
        cw.buf.Write(b)
    } else if remain := cw.limit - cw.size; remain > 0 {
        if int64(len(b)) <= remain {
            cw.buf.Write(b)
        } else {
            cw.buf.Write(b[:remain])
        }
    }
    cw.size += int64(len(b))
    return cw.ResponseWriter.Write(b)
}

// truncated reports whether the body outgrew the capture limit.
func (cw *captureWriter) truncated() bool { return cw.limit > 0 && cw.size > cw.limit }

func versionKey(cfg config.CacheConfig) string { return cfg.Prefix + ":ver" }

// cacheKeyFrom builds a stable key from the configured strategy.  version
// is the namespace generation; bumping it orphans every older entry.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context, version int64) string {
    r := c.Request()
    method := r.Method
    route := c.Path()
    query := r.URL.RawQuery

    parts := []string{cfg.Prefix}
    switch strings.ToLower(cfg.KeyStrategy) {
    case "route":
        parts = append(parts, "route", route, "p", paramValues(c))
    case "method_route":
        parts = append(parts, "method", method, "route", route, "p", paramValues(c))
    case "method_route_query":
        parts = append(parts, "method", method, "route", route, "p", paramValues(c), "q", query)
    default: // "route_query"
        parts = append(parts, "route", route, "p", paramValues(c), "q", query)
    }

    sum := sha1.Sum([]byte(strings.Join(parts[1:], ":")))
    return fmt.Sprintf("%s:v%d:%x", parts[0], version, sum[:])
}

// paramValues joins the path parameter values so /movies/:id entries for
// different ids do not collide.
func paramValues(c echo.Context) string {
    return strings.Join(c.ParamValues(), "/")
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
    hdrJSON, err := json.Marshal(header)
    if err != nil {
        return nil, err
    }
    out := make([]byte, 8+len(hdrJSON)+len(body))
    binary.BigEndian.PutUint32(out[0:4], uint32(status))
    binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
    copy(out[8:8+len(hdrJSON)], hdrJSON)
    copy(out[8+len(hdrJSON):], body)
    return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
    if len(bs) < 8 {
        return 0, nil, nil, false
    }
    status = int(binary.BigEndian.Uint32(bs[0:4]))
    hlen := int(binary.BigEndian.Uint32(bs[4:8]))
    if hlen < 0 || 8+hlen > len(bs) {
        return 0, nil, nil, false
    }
    hdr := make(http.Header)
    if hlen > 0 {
        if err := json.Unmarshal(bs[8:8+hlen], &hdr); err != nil {
            return 0, nil, nil, false
        }
    }
    return status, hdr, bs[8+hlen:], true
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// NewRedisCache caches successful responses to the configured methods,
// storing headers and body so a hit replays the stored response exactly.
// It is a pass-through when caching is disabled or rdb is nil.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    if log == nil {
        log = zap.NewNop()
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 30 * time.Second
    }
    maxBody := int64(cfg.MaxBodyBytes)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
                return next(c)
            }

            ctx := c.Request().Context()
            version, err := rdb.Get(ctx, versionKey(cfg)).Int64()
            if err != nil && err != redis.Nil {
                log.Debug("cache: version lookup failed", zap.Error(err))
                return next(c)
            }
            key := cacheKeyFrom(cfg, c, version)

            if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
                if status, hdr, body, ok := decodePayload(bs); ok {
                    for k, vals := range hdr {
                        if strings.EqualFold(k, echo.HeaderContentLength) {
                            continue
                        }
                        for _, v := range vals {
                            c.Response().Header().Add(k, v)
                        }
                    }
                    c.Response().Header().Set("X-Cache", "HIT")
                    c.Response().WriteHeader(status)
                    if len(body) > 0 {
                        _, _ = c.Response().Write(body)
                    }
                    return nil
                }
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }
            if cw.status != http.StatusOK || cw.truncated() {
                return nil
            }
            hdr := c.Response().Header().Clone()
            hdr.Del("X-Cache")
            if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
                if err := rdb.SetEx(context.Background(), key, payload, ttl).Err(); err != nil {
                    log.Debug("cache: store failed", zap.Error(err))
                }
            }
            return nil
        }
    }
}

// NewCacheInvalidator bumps the cache namespace after every successful
// (2xx) request it wraps.  Mount it on catalogue write routes.
func NewCacheInvalidator(cfg config.CacheConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    if log == nil {
        log = zap.NewNop()
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if err := next(c); err != nil {
                return err
            }
            if s := c.Response().Status; s >= 200 && s < 300 {
                if err := rdb.Incr(context.Background(), versionKey(cfg)).Err(); err != nil {
                    log.Warn("cache: invalidation failed", zap.Error(err))
                }
            }
            return nil
        }
    }
}
