package config

// Redis backs the catalogue response cache and the rate limiter.  Both
// degrade to pass-through when the client is nil, so a Redis outage at
// startup never prevents the service from booting.

import (
    "context"
    "crypto/tls"
    "os"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig holds connection parameters for Redis.
type RedisConfig struct {
    Addr     string
    Password string
    DB       int
    TLS      bool
}

// LoadRedisConfig reads REDIS_ADDR or REDIS_HOST/REDIS_PORT (host/port win
// when both are set), REDIS_PASSWORD, REDIS_DB and REDIS_TLS.
func LoadRedisConfig() RedisConfig {
    addr := os.Getenv("REDIS_ADDR")
    if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
        addr = host + ":" + port
    }
    if addr == "" {
        addr = "localhost:6379"
    }
    tlsEnv := os.Getenv("REDIS_TLS")
    return RedisConfig{
        Addr:     addr,
        Password: os.Getenv("REDIS_PASSWORD"),
        DB:       envInt("REDIS_DB", 0),
        TLS:      strings.EqualFold(tlsEnv, "true") || tlsEnv == "1",
    }
}

// NewRedisClient connects to Redis and pings it with a short timeout.
// It returns nil when the server is unreachable.
func NewRedisClient(rc RedisConfig) *redis.Client {
    var tlsConf *tls.Config
    if rc.TLS {
        tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      rc.Addr,
        Password:  rc.Password,
        DB:        rc.DB,
        TLSConfig: tlsConf,
    })
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}
