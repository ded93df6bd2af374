// Package wmlog wires up the structured logger shared by every component.
//
// Grounded on banksean-sand/cmd/sand/main.go's initSlog: a slog.JSONHandler
// over a file, installed as the process-wide default. Here the file is a
// lumberjack-rotated writer instead of a plain os.File, since the reactor's
// event loop (unlike sand's short-lived CLI invocations) runs for the
// lifetime of an X session and will otherwise grow one log file without
// bound.
package wmlog

import (
	"log/slog"
	"os"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the rotating JSON log sink.
type Options struct {
	Path       string
	Level      slog.Level
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DefaultOptions returns sane defaults for a long-running reactor process.
func DefaultOptions(path string) Options {
	return Options{
		Path:       path,
		Level:      slog.LevelInfo,
		MaxSizeMB:  10,
		MaxBackups: 5,
		MaxAgeDays: 28,
	}
}

// New builds a logger writing newline-delimited JSON to a rotated file at
// opts.Path, or to stderr when opts.Path is empty, and installs it as the
// process default, returning it for direct use too.
func New(opts Options) *slog.Logger {
	var w interface {
		Write([]byte) (int, error)
	}
	if opts.Path == "" {
		w = os.Stderr
	} else {
		w = &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: opts.Level}))
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a level name ("debug", "warn", "error") onto a slog.Level, defaulting
// to info on anything unrecognized (mirrors banksean-sand's initSlog switch).
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
