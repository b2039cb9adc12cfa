package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "strings"

    "github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
    Env            string   // application environment (e.g. "dev", "prod")
    Port           string   // HTTP port to listen on
    DBUser         string   // database username
    DBPass         string   // database password (optional)
    DBHost         string   // database host address
    DBPort         string   // database port number
    DBName         string   // database name
    JWTSecret      string   // secret used to sign JWTs
    AccessTTLMin   int      // access token time-to-live in minutes
    RefreshTTLDays int      // refresh token time-to-live in days
    BcryptCost     int      // bcrypt cost for password hashing
    AMQPURL        string   // RabbitMQ connection string; empty disables events
    BookingLogPath string   // audit file written by the booking event consumer
    LogLevel       string   // zap level: debug, info, warn, error
    CORSOrigins    []string // allowed browser origins for the SPA
    // AutoProvisionCinemas lets the cinema resolver create a placeholder
    // cinema the first time an unknown identifier code is seen.  When false
    // unknown codes are reported as not found.
    AutoProvisionCinemas bool
}

// Load reads an optional .env file and then the process environment.
// Required variables are enforced by must() and missing values cause the
// program to exit with a fatal log message.
func Load() Config {
    if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
        log.Printf("config: .env not loaded: %v", err)
    }
    return Config{
        Env:                  envStr("APP_ENV", "dev"),
        Port:                 envStr("APP_PORT", "5000"),
        DBUser:               must("DB_USER"),
        DBPass:               os.Getenv("DB_PASS"),
        DBHost:               must("DB_HOST"),
        DBPort:               envStr("DB_PORT", "3306"),
        DBName:               must("DB_NAME"),
        JWTSecret:            must("JWT_SECRET"),
        AccessTTLMin:         mustInt("ACCESS_TOKEN_TTL_MIN"),
        RefreshTTLDays:       mustInt("REFRESH_TOKEN_TTL_DAYS"),
        BcryptCost:           envInt("BCRYPT_COST", 10),
        AMQPURL:              amqpURL(),
        BookingLogPath:       envStr("BOOKING_LOG_PATH", "logs/booking.log"),
        LogLevel:             envStr("LOG_LEVEL", "info"),
        CORSOrigins:          splitList(envStr("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
        AutoProvisionCinemas: envBool("CINEMA_AUTO_PROVISION", true),
    }
}

// amqpURL honours both RABBITMQ_URL and AMQP_URL.
func amqpURL() string {
    if v := os.Getenv("RABBITMQ_URL"); v != "" {
        return v
    }
    return os.Getenv("AMQP_URL")
}

func splitList(s string) []string {
    var out []string
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
