package app

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the logger every component receives. Production writes JSON
// with Unix timestamps; anything else writes console lines with RFC3339 times.
// An empty level defaults to warn in production and info elsewhere.
func NewLogger(w io.Writer, level, env string) zerolog.Logger {
	production := env == "production"

	var logger zerolog.Logger
	if production {
		// per-logger hook; zerolog.TimeFieldFormat is global
		logger = zerolog.New(w).Hook(unixTimestamp)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
			NoColor:    w != os.Stderr && w != os.Stdout,
		}).With().Timestamp().Logger()
	}

	levelStr := strings.ToLower(level)
	switch levelStr {
	case "debug":
		logger = logger.Level(zerolog.DebugLevel)
	case "info":
		logger = logger.Level(zerolog.InfoLevel)
	case "warn", "warning":
		logger = logger.Level(zerolog.WarnLevel)
	case "error":
		logger = logger.Level(zerolog.ErrorLevel)
	case "fatal":
		logger = logger.Level(zerolog.FatalLevel)
	case "panic":
		logger = logger.Level(zerolog.PanicLevel)
	case "disabled":
		logger = logger.Level(zerolog.Disabled)
	case "":
		if production {
			logger = logger.Level(zerolog.WarnLevel)
		} else {
			logger = logger.Level(zerolog.InfoLevel)
		}
	default:
		logger = logger.Level(zerolog.InfoLevel)
		logger.Warn().Msgf("Unknown LOGLEVEL '%s', defaulting to info.", levelStr)
	}
	return logger
}

var unixTimestamp = zerolog.HookFunc(func(e *zerolog.Event, _ zerolog.Level, _ string) {
	e.Int64(zerolog.TimestampFieldName, time.Now().Unix())
})
