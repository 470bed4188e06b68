// Package logger builds the process-wide zerolog logger from configuration.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"inkpost/internal/config"
)

// New creates a logger writing to out. The "console" format produces
// human-readable lines; anything else writes JSON. An unknown level falls
// back to info with a warning.
func New(cfg config.LogConfig, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	if strings.ToLower(cfg.Format) == "console" {
		out = zerolog.ConsoleWriter{Out: out}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		if cfg.Level != "" {
			tmp := zerolog.New(os.Stderr).With().Timestamp().Logger()
			tmp.Warn().Msgf("Invalid log level '%s', defaulting to 'info'", cfg.Level)
		}
		level = zerolog.InfoLevel
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Setup builds a logger with New and installs it as the global logger used
// through github.com/rs/zerolog/log.
func Setup(cfg config.LogConfig, out io.Writer) zerolog.Logger {
	l := New(cfg, out)
	log.Logger = l
	return l
}
