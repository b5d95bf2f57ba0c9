// Package logging configures the process-wide structured logger.
//
// It follows the same shape as the richest logging setup in the example
// pool: log/slog for structured, leveled logging, with a rotating file
// writer so a long-running indexing daemon never grows an unbounded log.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Component names used to tag loggers passed to ForComponent.
const (
	CompStore    = "store"
	CompIndexer  = "indexer"
	CompWatcher  = "watcher"
	CompBrowser  = "browser"
	CompQuery    = "query"
	CompConfig   = "config"
	CompSemantic = "semantic"
	CompAPI      = "api"
	CompCore     = "core"
)

// Config controls where and how logs are written.
type Config struct {
	// LogDir is the directory that holds worksentry.log. Empty discards
	// all output (used for tests and short-lived CLI invocations).
	LogDir string

	// Level is one of "debug", "info", "warn", "error". Empty means info.
	Level string

	// MaxSizeMB is the rotation threshold. Zero uses a 10MB default.
	MaxSizeMB int

	// MaxBackups is how many rotated files to keep. Zero uses 5.
	MaxBackups int

	// MaxAgeDays is how long to keep rotated files. Zero uses 14.
	MaxAgeDays int
}

var (
	mu     sync.RWMutex
	global *slog.Logger
	writer *lumberjack.Logger
)

func init() {
	// Safe default so packages can log before Init is called (e.g. in
	// tests that never touch logging config).
	global = slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// Init installs the process-wide logger. Safe to call once at startup;
// later calls replace the global logger, which is mainly useful in tests.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	level := parseLevel(cfg.Level)

	var out io.Writer = io.Discard
	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err == nil {
			maxSize := cfg.MaxSizeMB
			if maxSize <= 0 {
				maxSize = 10
			}
			maxBackups := cfg.MaxBackups
			if maxBackups <= 0 {
				maxBackups = 5
			}
			maxAge := cfg.MaxAgeDays
			if maxAge <= 0 {
				maxAge = 14
			}
			writer = &lumberjack.Logger{
				Filename:   filepath.Join(cfg.LogDir, "worksentry.log"),
				MaxSize:    maxSize,
				MaxBackups: maxBackups,
				MaxAge:     maxAge,
				Compress:   true,
			}
			out = writer
		}
	}

	global = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
}

func parseLevel(s string) slog.Level {
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

// ForComponent returns a logger tagged with a "component" attribute,
// following the same per-subsystem tagging convention throughout
// WorkSentry's components.
func ForComponent(name string) *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global.With(slog.String("component", name))
}

// Close flushes and closes the rotating writer, if one is active.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if writer != nil {
		return writer.Close()
	}
	return nil
}
