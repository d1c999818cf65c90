// Package logging builds the service's zerolog logger.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options selects level, output format and an optional rotating log file
type Options struct {
	Level  string
	Format string // "console" or "json"
	File   string
}

// New builds a logger and installs it as the global zerolog logger.
// Unknown levels fall back to info.
func New(opts Options) zerolog.Logger {
	return build(opts, os.Stdout)
}

func build(opts Options, stdout io.Writer) zerolog.Logger {
	var console io.Writer = stdout
	if strings.EqualFold(opts.Format, "console") {
		console = zerolog.ConsoleWriter{Out: stdout, TimeFormat: time.RFC3339}
	}

	writers := []io.Writer{console}
	if opts.File != "" {
		_ = os.MkdirAll(filepath.Dir(opts.File), 0o755)
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		})
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "comparaprecios-backend").
		Logger()
	log.Logger = logger
	return logger
}
