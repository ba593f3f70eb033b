package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/modfleet/gatehouse/pkg/contextkeys"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.Debug("debug message")
	if buf.Len() > 0 {
		t.Error("Debug message should not be logged at Info level")
	}

	logger.Info("info message")
	if buf.Len() == 0 {
		t.Error("Info message should be logged at Info level")
	}
}

func TestLoggerWithField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithField("subject_id", "u1").Info("message")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal log entry: %v", err)
	}
	if entry["subject_id"] != "u1" {
		t.Errorf("Expected field subject_id to be u1, got %v", entry["subject_id"])
	}
	if entry["msg"] != "message" {
		t.Errorf("Expected message, got %v", entry["msg"])
	}
}

func TestLoggerContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(DebugLevel, &buf)

	ctx := WithLogger(context.Background(), logger)
	if got := GetLogger(ctx); got != logger {
		t.Error("GetLogger should return the logger stored by WithLogger")
	}
}

func TestLoggerStoredUnderCentralKey(t *testing.T) {
	logger := NewLogger(InfoLevel, nil)
	ctx := WithLogger(context.Background(), logger)

	// The logger must live under the shared contextkeys key so callers
	// outside this package can find it
	if got, ok := ctx.Value(contextkeys.LoggerKey).(*Logger); !ok || got != logger {
		t.Error("logger should be stored under contextkeys.LoggerKey")
	}
}

func TestGetLoggerFallback(t *testing.T) {
	if GetLogger(context.Background()) == nil {
		t.Error("GetLogger should return a usable logger when none is set")
	}
}
