package logging

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{DebugLevel, "debug"},
		{InfoLevel, "info"},
		{WarnLevel, "warning"},
		{ErrorLevel, "error"},
		{FatalLevel, "fatal"},
	}

	for _, test := range tests {
		if GetLevelName(test.level) != test.expected {
			t.Errorf("expected level name %s, got %s", test.expected, GetLevelName(test.level))
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"fatal", FatalLevel},
		{"unknown", InfoLevel},
	}

	for _, test := range tests {
		if ParseLogLevel(test.input) != test.expected {
			t.Errorf("expected level %v for input %s, got %v", test.expected, test.input, ParseLogLevel(test.input))
		}
	}
}

func TestManagerChannelFallsBackToDefault(t *testing.T) {
	manager := NewManager()

	buffer := &bytes.Buffer{}
	consoleDriver := NewConsoleDriver(false)
	consoleDriver.SetWriter(buffer)
	manager.AddChannel("test", consoleDriver, InfoLevel)

	logger := manager.Channel("test")
	logger.Info("test message")
	if !strings.Contains(buffer.String(), "test message") {
		t.Errorf("expected output to contain 'test message', got: %s", buffer.String())
	}

	manager.SetDefaultChannel("test")
	if manager.Default() == nil {
		t.Fatal("expected a default logger")
	}
	if manager.Channel("nonexistent") == nil {
		t.Fatal("expected the default channel back for an unknown name")
	}
}

func TestChannelWithMigrationIDContext(t *testing.T) {
	buffer := &bytes.Buffer{}
	consoleDriver := NewConsoleDriver(false)
	consoleDriver.SetWriter(buffer)

	manager := NewManager()
	manager.AddChannel("test", consoleDriver, DebugLevel)
	logger := manager.Channel("test")

	ctx := WithMigrationID(context.Background(), "20260101000000_create_users")
	logger.InfoContext(ctx, "applying migration")

	output := buffer.String()
	if !strings.Contains(output, "applying migration") {
		t.Errorf("expected output to contain the message, got: %s", output)
	}
	if !strings.Contains(output, "20260101000000_create_users") {
		t.Errorf("expected output to carry the migration id from context, got: %s", output)
	}
}

func TestChannelWithContextData(t *testing.T) {
	buffer := &bytes.Buffer{}
	consoleDriver := NewConsoleDriver(false)
	consoleDriver.SetWriter(buffer)

	manager := NewManager()
	manager.AddChannel("test", consoleDriver, DebugLevel)
	logger := manager.Channel("test")

	logger.Info("pool event", map[string]interface{}{"id": "conn-123", "event": "acquire"})

	output := buffer.String()
	if !strings.Contains(output, "pool event") {
		t.Errorf("expected output to contain the message, got: %s", output)
	}
	if !strings.Contains(output, "conn-123") {
		t.Errorf("expected output to contain context data, got: %s", output)
	}
}

func TestLogLevelFiltering(t *testing.T) {
	buffer := &bytes.Buffer{}
	consoleDriver := NewConsoleDriver(false)
	consoleDriver.SetWriter(buffer)

	manager := NewManager()
	manager.AddChannel("test", consoleDriver, WarnLevel)
	logger := manager.Channel("test")

	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buffer.String()
	if strings.Contains(output, "info message") {
		t.Error("info message should be filtered out below WarnLevel")
	}
	if !strings.Contains(output, "warn message") {
		t.Errorf("warn message should appear in output: %s", output)
	}
	if !strings.Contains(output, "error message") {
		t.Errorf("error message should appear in output: %s", output)
	}
}

func TestConsoleDriver(t *testing.T) {
	buffer := &bytes.Buffer{}
	driver := NewConsoleDriver(false)
	driver.SetWriter(buffer)

	entry := LogEntry{
		Level:     InfoLevel,
		Message:   "test message",
		Timestamp: time.Now(),
		Channel:   "test",
		Context:   map[string]interface{}{"key": "value"},
	}

	if err := driver.Write(context.Background(), entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buffer.String()
	if !strings.Contains(output, "test message") {
		t.Errorf("expected output to contain 'test message', got: %s", output)
	}
	if !strings.Contains(output, "[INFO]") {
		t.Errorf("expected output to contain '[INFO]', got: %s", output)
	}
}

func TestJSONDriver(t *testing.T) {
	buffer := &bytes.Buffer{}
	driver := NewJSONDriver(buffer)

	entry := LogEntry{
		Level:     InfoLevel,
		Message:   "test message",
		Timestamp: time.Now(),
		Channel:   "test",
		Context:   map[string]interface{}{"key": "value"},
	}

	if err := driver.Write(context.Background(), entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buffer.String()
	if !strings.Contains(output, "test message") {
		t.Errorf("expected JSON output to contain 'test message', got: %s", output)
	}
	if !strings.Contains(output, `"level":"info"`) {
		t.Errorf("expected JSON output to contain level info, got: %s", output)
	}
}

func TestService(t *testing.T) {
	config := DefaultConfig()
	service, err := NewService(config)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	defer service.Close()

	service.Logger().Info("test service message")

	ctx := WithConnectionID(context.Background(), "conn-456")
	service.Logger().InfoContext(ctx, "test context message")

	if service.Channel("console") == nil {
		t.Fatal("expected console logger, got nil")
	}
}

func TestFileDriver(t *testing.T) {
	tempFile := t.TempDir() + "/dbkit_test.log"

	driver, err := NewFileDriver(tempFile, 1024, 2)
	if err != nil {
		t.Fatalf("failed to create file driver: %v", err)
	}
	defer driver.Close()

	entry := LogEntry{
		Level:     InfoLevel,
		Message:   "test file message",
		Timestamp: time.Now(),
		Channel:   "test",
		Context:   map[string]interface{}{"key": "value"},
	}

	if err := driver.Write(context.Background(), entry); err != nil {
		t.Fatalf("unexpected error writing to file: %v", err)
	}

	content, err := os.ReadFile(tempFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "test file message") {
		t.Errorf("expected file content to contain 'test file message', got: %s", string(content))
	}
}
