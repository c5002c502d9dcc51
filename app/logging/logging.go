package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

type Config struct {
	Format string // text or json
	Debug  bool
	File   string // optional, teed alongside stderr

	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
}

// Setup installs the default slog logger. The returned closer releases the
// log file and is a no-op when no file is configured.
func Setup(cfg Config) (io.Closer, error) {
	return setup(cfg, os.Stderr)
}

func setup(cfg Config, console io.Writer) (io.Closer, error) {
	var output = console
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSize, 64),
			MaxBackups: orDefault(cfg.MaxBackups, 3),
			MaxAge:     orDefault(cfg.MaxAge, 7),
			Compress:   true,
		}
		output = io.MultiWriter(console, fileWriter)
		closer = fileWriter
	}

	handler, err := newHandler(cfg, output)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(slog.New(handler))
	return closer, nil
}

func newHandler(cfg Config, w io.Writer) (slog.Handler, error) {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	switch cfg.Format {
	case FormatText, "":
		return slog.NewTextHandler(w, opts), nil
	case FormatJSON:
		return slog.NewJSONHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
