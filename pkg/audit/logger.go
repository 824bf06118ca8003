package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/madspDTU/rsuet/pkg/logger"
)

// StdoutLogger writes run records to standard output as they're logged.
type StdoutLogger struct {
	mu sync.Mutex
}

func NewStdoutLogger() *StdoutLogger {
	return &StdoutLogger{}
}

func (l *StdoutLogger) Log(r *RunRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	fmt.Println("[AUDIT]", string(data))
	return nil
}

func (l *StdoutLogger) Close() error { return nil }

// FileLogger appends run records as newline-delimited JSON to a file.
type FileLogger struct {
	file   *os.File
	writer *bufio.Writer
	mu     sync.Mutex
}

func NewFileLogger(path string) (*FileLogger, error) {
	if path == "" {
		path = "audit.log"
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}

	return &FileLogger{file: file, writer: bufio.NewWriter(file)}, nil
}

func (l *FileLogger) Log(r *RunRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if _, err := l.writer.Write(append(data, '\n')); err != nil {
		return err
	}
	return l.writer.Flush()
}

func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.writer.Flush(); err != nil {
		logger.Warn("failed to flush audit writer", "error", err)
	}
	return l.file.Close()
}

// NoopLogger discards every run record; used when auditing is disabled.
type NoopLogger struct{}

func (l *NoopLogger) Log(_ *RunRecord) error { return nil }
func (l *NoopLogger) Close() error           { return nil }

// New builds the Logger implied by cfg. An unknown backend falls back to
// stdout rather than failing a run over an audit misconfiguration.
func New(cfg Config) (Logger, error) {
	if !cfg.Enabled {
		return &NoopLogger{}, nil
	}

	switch cfg.Backend {
	case "file":
		return NewFileLogger(cfg.FilePath)
	case "stdout", "":
		return NewStdoutLogger(), nil
	default:
		logger.Warn("unknown audit backend, using stdout", "backend", cfg.Backend)
		return NewStdoutLogger(), nil
	}
}
