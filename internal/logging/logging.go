package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/1broseidon/dockbar/internal/runtimepath"
)

// Sink selects where log records go.
type Sink string

const (
	SinkStderr Sink = "stderr"
	SinkFile   Sink = "file"
	SinkNone   Sink = "none"
)

// Format selects the record encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

const (
	EnvLogLevel  = "DOCKBAR_LOG_LEVEL"
	EnvLogSink   = "DOCKBAR_LOG_SINK"
	EnvLogFormat = "DOCKBAR_LOG_FORMAT"
	EnvLogFile   = "DOCKBAR_LOG_FILE"
)

// Config is the logging section of the dockbar configuration.
type Config struct {
	Sink       Sink   `yaml:"sink"`
	Format     Format `yaml:"format"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
	AddSource  bool   `yaml:"add_source"`
}

// DefaultConfig logs text to stderr, rotating at 20MB when a file sink is
// selected.
func DefaultConfig() Config {
	return Config{
		Sink:       SinkStderr,
		Format:     FormatText,
		MaxSizeMB:  20,
		MaxBackups: 5,
		MaxAgeDays: 7,
		Compress:   true,
	}
}

// Validate checks sink and format values.
func (c Config) Validate() error {
	switch c.Sink {
	case SinkStderr, SinkFile, SinkNone, "":
	default:
		return fmt.Errorf("logging.sink must be one of stderr, file, none (got %q)", c.Sink)
	}
	switch c.Format {
	case FormatText, FormatJSON, "":
	default:
		return fmt.Errorf("logging.format must be text or json (got %q)", c.Format)
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("logging rotation limits must be >= 0")
	}
	return nil
}

// WithEnv applies DOCKBAR_LOG_* overrides.
func (c Config) WithEnv() Config {
	if v := strings.TrimSpace(os.Getenv(EnvLogSink)); v != "" {
		c.Sink = Sink(strings.ToLower(v))
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		c.Format = Format(strings.ToLower(v))
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		c.File = v
	}
	return c
}

// ParseLevel maps a level name to a slog level; unknown names are info.
func ParseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		if n, err := strconv.Atoi(value); err == nil {
			return slog.Level(n)
		}
		return slog.LevelInfo
	}
}

// New builds a logger for cfg at level. The returned close function
// flushes and closes any file sink.
func New(cfg Config, level string) (*slog.Logger, func() error, error) {
	cfg = cfg.WithEnv()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		level = v
	}

	writer, closeFn, err := resolveWriter(cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == FormatJSON {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}
	return slog.New(handler), closeFn, nil
}

func resolveWriter(cfg Config) (io.Writer, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Sink {
	case SinkNone:
		return io.Discard, noop, nil
	case SinkStderr, "":
		return os.Stderr, noop, nil
	case SinkFile:
		path := strings.TrimSpace(cfg.File)
		if path == "" {
			p, err := runtimepath.LogPath()
			if err != nil {
				return nil, nil, err
			}
			path = p
		}
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		rot := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		return rot, rot.Close, nil
	default:
		return nil, nil, fmt.Errorf("logging: unknown sink %q", cfg.Sink)
	}
}
