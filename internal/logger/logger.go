package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/unclebandit/outreach-backend/internal/config"
)

// New creates a zerolog.Logger configured for the given binary.
func New(cfg *config.Config, component string) zerolog.Logger {
	level := parseLevel(cfg.LogLevel)

	var base zerolog.Logger
	if cfg.Environment == "production" {
		base = log.Output(os.Stdout)
	} else {
		base = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	return base.With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("component", component).
		Logger().
		Level(level)
}

func parseLevel(raw string) zerolog.Level {
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
