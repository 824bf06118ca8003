// Package logger configures the process-wide structured logger for the
// solver CLI and hands out run- and component-scoped children. A solve is
// a batch job: the root logger is built once at startup from the loaded
// configuration, every record of one solve carries its run id, and the
// solver's internals tag records with the component they came from.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls level, format, and destination of process logs.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, text
	Output     string // stdout, stderr, file
	FilePath   string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// root is the process logger. Before Setup runs it falls through to
// slog's default so early startup messages are never lost.
var root = slog.Default()

// Setup builds the root logger from cfg and installs it both as this
// package's logger and as slog's process default, so code logging through
// slog.Default (the solver driver does, until handed a run logger)
// inherits the same handler. Debug level additionally records source
// positions. Returns the root logger.
func Setup(cfg Config) *slog.Logger {
	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	w := destination(cfg)
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	root = slog.New(handler)
	slog.SetDefault(root)
	return root
}

// parseLevel maps a config string onto a slog level, defaulting to info
// on anything unrecognized rather than failing startup over a typo.
func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// destination picks the output writer. File output rotates through
// lumberjack; an uncreatable log directory degrades to stderr so the
// solve itself still runs.
func destination(cfg Config) io.Writer {
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		return os.Stderr
	case "file":
		return rotatingFile(cfg)
	default:
		return os.Stdout
	}
}

func rotatingFile(cfg Config) io.Writer {
	path := cfg.FilePath
	if path == "" {
		path = filepath.Join("logs", "rsuet.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return os.Stderr
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
}

// Run returns a child logger tagging every record with the solver run id.
// The CLI creates one per solve and threads it through the driver, so a
// --watch session's interleaved re-runs stay distinguishable.
func Run(runID string) *slog.Logger {
	return root.With("run_id", runID)
}

// Component returns a child logger tagging records with the originating
// component (graph, dijkstra, choiceset, solver, tntp, report).
func Component(name string) *slog.Logger {
	return root.With("component", name)
}

// Debug logs at debug level through the root logger.
func Debug(msg string, args ...any) { root.Debug(msg, args...) }

// Info logs at info level through the root logger.
func Info(msg string, args ...any) { root.Info(msg, args...) }

// Warn logs at warn level through the root logger.
func Warn(msg string, args ...any) { root.Warn(msg, args...) }

// Error logs at error level through the root logger.
func Error(msg string, args ...any) { root.Error(msg, args...) }
