package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, "test-component")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	if logger.component != "test-component" {
		t.Errorf("Expected component 'test-component', got %q", logger.component)
	}

	if logger.runID == "" {
		t.Error("Expected non-empty run ID")
	}

	if filepath.Dir(logger.logPath) != dir {
		t.Errorf("Expected log file under %s, got %s", dir, logger.logPath)
	}

	if _, err := os.Stat(logger.logPath); os.IsNotExist(err) {
		t.Errorf("Log file does not exist at %s", logger.logPath)
	}
}

func TestNewLogger_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")

	logger, err := NewLogger(dir, "test")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("Log directory was not created: %s", dir)
	}
}

func TestLoggerFormatting(t *testing.T) {
	logger, err := NewLogger(t.TempDir(), "test")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	logger.Debugf("Debug message %d", 1)
	logger.Infof("Info message")
	logger.Warnf("Warning message")
	logger.Errorf("Error message")

	content, err := os.ReadFile(logger.logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	logContent := string(content)
	expectedPatterns := []string{
		"[test] [DEBUG] Debug message 1",
		"[test] [INFO] Info message",
		"[test] [WARN] Warning message",
		"[test] [ERROR] Error message",
	}

	for _, pattern := range expectedPatterns {
		if !strings.Contains(logContent, pattern) {
			t.Errorf("Log content missing expected pattern: %q\nContent:\n%s", pattern, logContent)
		}
	}
}

func TestNamedSharesOutput(t *testing.T) {
	logger, err := NewLogger(t.TempDir(), "runtime")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	child := logger.Named("store")
	if child.RunID() != logger.RunID() {
		t.Errorf("Expected same run ID, got %q and %q", child.RunID(), logger.RunID())
	}
	if child.LogPath() != logger.LogPath() {
		t.Errorf("Expected same log path, got %q and %q", child.LogPath(), logger.LogPath())
	}

	logger.Infof("from runtime")
	child.Infof("from store")

	content, err := os.ReadFile(logger.LogPath())
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	logContent := string(content)
	if !strings.Contains(logContent, "[runtime] [INFO] from runtime") {
		t.Error("Log missing runtime entry")
	}
	if !strings.Contains(logContent, "[store] [INFO] from store") {
		t.Error("Log missing store entry")
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger

	logger.Debugf("ignored")
	logger.Infof("ignored")
	logger.Warnf("ignored")
	logger.Errorf("ignored")

	if logger.Named("x") != nil {
		t.Error("Expected Named on nil logger to return nil")
	}
	if logger.RunID() == "" {
		t.Error("Expected process run ID from nil logger")
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close on nil logger failed: %v", err)
	}
}

func TestNewLogger_EmptyDirFallsBack(t *testing.T) {
	logger, err := NewLogger("", "test")
	if err == nil {
		t.Fatal("Expected error for empty log directory")
	}
	if logger == nil {
		t.Fatal("Expected fallback logger")
	}
	if logger.LogPath() != "" {
		t.Errorf("Expected empty log path in fallback mode, got %q", logger.LogPath())
	}
}

func TestLoggerClose(t *testing.T) {
	logger, err := NewLogger(t.TempDir(), "test")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Errorf("First close failed: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}
}

func TestLogPathFormat(t *testing.T) {
	logger, err := NewLogger(t.TempDir(), "test")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	fileName := filepath.Base(logger.logPath)
	if !strings.HasSuffix(fileName, "-slack-bridge.log") {
		t.Errorf("Expected log file to end with '-slack-bridge.log', got %q", fileName)
	}

	runPart := strings.TrimSuffix(fileName, "-slack-bridge.log")
	if !strings.Contains(runPart, "-") {
		t.Errorf("Expected run ID part to contain dashes (UUID format), got %q", runPart)
	}
}

func TestWriter(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, "driver")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer logger.Close()

	if _, err := logger.Writer().Write([]byte("raw driver output\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	content, err := os.ReadFile(logger.LogPath())
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "raw driver output") {
		t.Errorf("expected raw output in log file, got %q", content)
	}

	var nilLogger *Logger
	if _, err := nilLogger.Writer().Write([]byte("dropped")); err != nil {
		t.Errorf("nil logger writer should discard, got %v", err)
	}
}
