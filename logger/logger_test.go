package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setupTestLogger creates a temp log file and initializes the logger with it.
// Returns the path to the temp file and a cleanup function.
func setupTestLogger(t *testing.T) (string, func()) {
	t.Helper()
	Reset()

	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test-debug.log")
	if err := Init(logPath); err != nil {
		t.Fatalf("Failed to init logger: %v", err)
	}

	return logPath, func() {
		Reset()
	}
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	return string(content)
}

func TestGet_StructuredLogging(t *testing.T) {
	logPath, cleanup := setupTestLogger(t)
	defer cleanup()

	Get().Info("push attempted", "remote", "origin", "exitCode", 0)

	content := readLog(t, logPath)
	if !strings.Contains(content, "push attempted") {
		t.Error("Should contain message")
	}
	if !strings.Contains(content, "remote=origin") {
		t.Error("Should contain remote=origin")
	}
	if !strings.Contains(content, "exitCode=0") {
		t.Error("Should contain exitCode=0")
	}
	if !strings.Contains(content, "time=") {
		t.Error("Log line should contain timestamp")
	}
}

func TestInit_CreatesDirectory(t *testing.T) {
	Reset()
	defer Reset()

	logPath := filepath.Join(t.TempDir(), "nested", "dir", "gitgate.log")
	if err := Init(logPath); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if Path() != logPath {
		t.Errorf("Path() = %q, want %q", Path(), logPath)
	}
	if _, err := os.Stat(logPath); err != nil {
		t.Errorf("expected log file to exist: %v", err)
	}
}

func TestInitWriter(t *testing.T) {
	Reset()
	defer Reset()

	var buf bytes.Buffer
	InitWriter(&buf)

	Get().Info("to the writer")

	if !strings.Contains(buf.String(), "to the writer") {
		t.Errorf("expected message in writer, got %q", buf.String())
	}
	if Path() != "" {
		t.Errorf("expected empty Path() for writer logger, got %q", Path())
	}
}

func TestInit_SecondCallIgnored(t *testing.T) {
	Reset()
	defer Reset()

	var buf bytes.Buffer
	InitWriter(&buf)

	logPath := filepath.Join(t.TempDir(), "ignored.log")
	if err := Init(logPath); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	Get().Info("still buffered")

	if !strings.Contains(buf.String(), "still buffered") {
		t.Error("expected first initialization to win")
	}
	if _, err := os.Stat(logPath); !os.IsNotExist(err) {
		t.Error("expected second Init not to create a file")
	}
}

func TestClose(t *testing.T) {
	_, cleanup := setupTestLogger(t)
	defer cleanup()

	// Close should not panic, and logging afterwards falls back to stderr
	Close()
	if Get() == nil {
		t.Fatal("Get() returned nil after Close()")
	}
}

func TestReset(t *testing.T) {
	tmpDir := t.TempDir()
	logPath1 := filepath.Join(tmpDir, "log1.log")
	Reset()
	if err := Init(logPath1); err != nil {
		t.Fatalf("Failed to init logger: %v", err)
	}

	Get().Info("message to log1")

	// Reset and reinitialize to a different path
	Reset()

	logPath2 := filepath.Join(tmpDir, "log2.log")
	if err := Init(logPath2); err != nil {
		t.Fatalf("Failed to reinit logger: %v", err)
	}

	Get().Info("message to log2")

	content1 := readLog(t, logPath1)
	if !strings.Contains(content1, "message to log1") {
		t.Error("log1 should contain 'message to log1'")
	}
	if strings.Contains(content1, "message to log2") {
		t.Error("log1 should NOT contain 'message to log2'")
	}

	content2 := readLog(t, logPath2)
	if !strings.Contains(content2, "message to log2") {
		t.Error("log2 should contain 'message to log2'")
	}
	if strings.Contains(content2, "message to log1") {
		t.Error("log2 should NOT contain 'message to log1'")
	}

	Reset()
}

func TestLogLevels(t *testing.T) {
	logPath, cleanup := setupTestLogger(t)
	defer cleanup()

	SetDebug(true)
	defer SetDebug(false)

	log := Get()
	log.Debug("debug message")
	log.Info("info message")
	log.Warn("warn message")
	log.Error("error message")

	content := readLog(t, logPath)
	for _, want := range []string{
		"debug message", "info message", "warn message", "error message",
		"level=DEBUG", "level=INFO", "level=WARN", "level=ERROR",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("Should contain %q", want)
		}
	}
}

func TestLogLevel_Filtering(t *testing.T) {
	logPath, cleanup := setupTestLogger(t)
	defer cleanup()

	// Default is Info level - Debug should be filtered
	SetDebug(false)

	log := Get()
	log.Debug("debug-filtered")
	log.Info("info-visible")

	content := readLog(t, logPath)
	if strings.Contains(content, "debug-filtered") {
		t.Error("Debug message should be filtered at Info level")
	}
	if !strings.Contains(content, "info-visible") {
		t.Error("Info message should be visible at Info level")
	}
}

func TestSetLevel(t *testing.T) {
	logPath, cleanup := setupTestLogger(t)
	defer cleanup()

	tests := []struct {
		name    string
		ok      bool
		visible string
		hidden  string
	}{
		{"debug", true, "debug", ""},
		{"info", true, "info", "debug"},
		{"notice", true, "info", "debug"},
		{"warning", true, "warn", "info"},
		{"critical", true, "error", "warn"},
	}

	for _, tt := range tests {
		if got := SetLevel(tt.name); got != tt.ok {
			t.Fatalf("SetLevel(%q) = %v, want %v", tt.name, got, tt.ok)
		}
		log := Get()
		log.Debug(tt.name + "-debug")
		log.Info(tt.name + "-info")
		log.Warn(tt.name + "-warn")
		log.Error(tt.name + "-error")

		content := readLog(t, logPath)
		if !strings.Contains(content, tt.name+"-"+tt.visible) {
			t.Errorf("SetLevel(%q): expected %s messages to be visible", tt.name, tt.visible)
		}
		if tt.hidden != "" && strings.Contains(content, tt.name+"-"+tt.hidden) {
			t.Errorf("SetLevel(%q): expected %s messages to be filtered", tt.name, tt.hidden)
		}
	}

	if SetLevel("verbose") {
		t.Error("SetLevel should reject unknown level names")
	}
}

func TestWithComponent(t *testing.T) {
	logPath, cleanup := setupTestLogger(t)
	defer cleanup()

	WithComponent("git").Info("commit created", "hash", "abc123")

	content := readLog(t, logPath)
	if !strings.Contains(content, "commit created") {
		t.Error("Should contain 'commit created' message")
	}
	if !strings.Contains(content, "component=git") {
		t.Error("Should contain 'component=git' attribute")
	}
	if !strings.Contains(content, "hash=abc123") {
		t.Error("Should contain 'hash=abc123' attribute")
	}
}

func TestWithRepo(t *testing.T) {
	logPath, cleanup := setupTestLogger(t)
	defer cleanup()

	WithRepo("web-app").With("component", "service").Info("push finished", "remote", "origin")
	WithRepo("").Info("unnamed context")

	content := readLog(t, logPath)
	if !strings.Contains(content, "repo=web-app") {
		t.Error("Should contain 'repo=web-app' attribute")
	}
	if !strings.Contains(content, "component=service") {
		t.Error("Should contain component")
	}
	for line := range strings.SplitSeq(content, "\n") {
		if strings.Contains(line, "unnamed context") && strings.Contains(line, "repo=") {
			t.Errorf("unnamed context should not carry a repo attribute: %q", line)
		}
	}
}

func TestEnsureInit_DefaultsToStderr(t *testing.T) {
	Reset()
	defer Reset()

	// Don't call Init - let ensureInit fall back to stderr
	log := Get()
	if log == nil {
		t.Fatal("Get() returned nil without prior Init()")
	}
	if Path() != "" {
		t.Errorf("expected no log file, got %q", Path())
	}
}

func TestConcurrent_InitAndGet(t *testing.T) {
	// Test that concurrent Init and Get calls don't race
	for range 10 {
		Reset()

		logPath := filepath.Join(t.TempDir(), "concurrent.log")

		done := make(chan bool, 20)

		for range 5 {
			go func() {
				_ = Init(logPath)
				done <- true
			}()
			go func() {
				Get().Debug("concurrent get")
				done <- true
			}()
			go func() {
				WithRepo("api").Debug("concurrent repo")
				done <- true
			}()
			go func() {
				WithComponent("comp").Debug("concurrent component")
				done <- true
			}()
		}

		for range 20 {
			<-done
		}
	}
	Reset()
}
