// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	stdlog "log"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Field names shared by component loggers.
const (
	Component = "component"
	RequestID = "request_id"
)

// Setup sets the global level and output and routes the standard log package into zerolog.
// Outside production the output is a human readable console writer.
func Setup(level string, production bool) zerolog.Logger {
	return SetupWriter(os.Stderr, level, production)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, level string, production bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	out := w
	if !production {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger

	stdlog.SetFlags(0)
	stdlog.SetOutput(logger)
	return logger
}

// For returns a child of the global logger tagged with the component name.
func For(component string) zerolog.Logger {
	return log.With().Str(Component, component).Logger()
}
