// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level  string // trace, debug, info, warn, error
	Format string // text or json
	// File, when set, receives a copy of every line and is rotated by size.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Setup applies opts to the standard logrus logger. The returned closer
// flushes and closes the log file, if any.
func Setup(opts Options) (io.Closer, error) {
	return configure(logrus.StandardLogger(), os.Stderr, opts)
}

func configure(logger *logrus.Logger, console io.Writer, opts Options) (io.Closer, error) {
	level := logrus.InfoLevel
	if strings.TrimSpace(opts.Level) != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		level = parsed
	}
	logger.SetLevel(level)

	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("log format %q: want text or json", opts.Format)
	}

	if opts.File == "" {
		logger.SetOutput(console)
		return nopCloser{}, nil
	}

	rotator := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    valueOr(opts.MaxSizeMB, 20),
		MaxBackups: valueOr(opts.MaxBackups, 5),
		MaxAge:     valueOr(opts.MaxAgeDays, 28),
		Compress:   true,
	}
	logger.SetOutput(io.MultiWriter(console, rotator))
	return rotator, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func valueOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
