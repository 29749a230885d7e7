package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

var (
	root     *slog.Logger
	levelVar = new(slog.LevelVar)
	logFile  *os.File
	mu       sync.Mutex
	logPath  string
	initDone bool
)

// SetDebug enables or disables debug level logging
func SetDebug(enabled bool) {
	if enabled {
		levelVar.Set(slog.LevelDebug)
	} else {
		levelVar.Set(slog.LevelInfo)
	}
}

// SetLevel sets the minimum level by name ("debug", "info", "warn", "error").
// MCP level names above error ("critical", "alert", "emergency") map to error
// and "notice" maps to info. Returns false for unknown names.
func SetLevel(name string) bool {
	switch name {
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "info", "notice":
		levelVar.Set(slog.LevelInfo)
	case "warning", "warn":
		levelVar.Set(slog.LevelWarn)
	case "error", "critical", "alert", "emergency":
		levelVar.Set(slog.LevelError)
	default:
		return false
	}
	return true
}

// Init initializes the logger with a log file path. Must be called before logging.
// If neither Init nor InitWriter is called, logs go to stderr.
// Returns an error if the log file cannot be opened.
func Init(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if initDone {
		return nil
	}

	// Ensure the directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	logPath = path
	logFile = f
	setWriter(f)

	root.Info("logger initialized", "path", path)
	return nil
}

// InitWriter initializes the logger to write to w. stdout must never be
// passed here: it carries the RPC stream.
func InitWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	if initDone {
		return
	}
	setWriter(w)
}

// setWriter installs the text handler. Caller must hold mu.
func setWriter(w io.Writer) {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: levelVar})
	root = slog.New(handler)
	initDone = true
}

// ensureInit falls back to stderr if the logger was never initialized.
// Caller must hold mu.
func ensureInit() {
	if initDone {
		return
	}
	setWriter(os.Stderr)
}

// Path returns the log file path, or "" when logging to a writer.
func Path() string {
	mu.Lock()
	defer mu.Unlock()
	return logPath
}

// Get returns the root logger instance.
// Use this when you don't have repository context.
func Get() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()

	ensureInit()
	return root
}

// WithRepo returns a logger with the repository context name attached.
// All log entries from this logger will include repo as a structured field.
//
// Example:
//
//	log := logger.WithRepo(rc.Name)
//	log.Info("push finished", "remote", rc.RemoteName)
//	// Output: level=INFO msg="push finished" repo=web-app remote=origin
func WithRepo(name string) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()

	ensureInit()
	if name == "" {
		return root
	}
	return root.With("repo", name)
}

// WithComponent returns a logger with the component name attached.
// Useful for identifying the source of non-repository logging.
//
// Example:
//
//	log := logger.WithComponent("git")
//	log.Info("commit created", "hash", hash)
//	// Output: level=INFO msg="commit created" component=git hash=abc123
func WithComponent(component string) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()

	ensureInit()
	return root.With("component", component)
}

// Close closes the log file
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	root = nil
	initDone = false
}

// Reset resets the logger state, allowing reinitialization.
// This is primarily for testing purposes.
func Reset() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	initDone = false
	logPath = ""
	root = nil
	levelVar.Set(slog.LevelInfo)
}
