// Package log builds the root zerolog logger every component derives its
// own from via With().Str("component", ...).
package log

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

func New(environment string) zerolog.Logger {
	production := environment == "production"

	level := zerolog.DebugLevel
	if production {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
		NoColor:    production,
	}

	return zerolog.New(output).With().
		Timestamp().
		Str("service", "ecowatch-api").
		Str("env", environment).
		Logger()
}
