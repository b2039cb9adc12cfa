// Package logger builds the process-wide zap logger.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON production logger, or a human-readable development
// logger when env is "dev" or "test".  Unknown levels fall back to info.
func New(env, level string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(env) {
	case "dev", "development", "test":
		cfg = zap.NewDevelopmentConfig()
	default:
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func parseLevel(s string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(s)))); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
