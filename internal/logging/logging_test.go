package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestBuildLoggerWritesJSONL(t *testing.T) {
	var buf bytes.Buffer
	logger := NewBuildLogger(&buf)

	records := []BuildRecord{
		{
			Timestamp: time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC),
			Grammar:   "nhttp",
			States:    120,
			Result:    ResultOK,
		},
		{
			Timestamp: time.Date(2026, 2, 3, 10, 1, 0, 0, time.UTC),
			Grammar:   "nhttp",
			Result:    ResultError,
			ErrorKind: "ambiguous_grammar",
			Error:     strings.Repeat("e", 1000),
		},
	}
	for _, record := range records {
		if err := logger.Write(record); err != nil {
			t.Fatalf("Write error: %v", err)
		}
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var parsed BuildRecord
	if err := json.Unmarshal([]byte(lines[1]), &parsed); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(parsed.Error) != maxError {
		t.Fatalf("expected error length %d, got %d", maxError, len(parsed.Error))
	}
	if strings.Contains(lines[0], "error_kind") {
		t.Fatalf("expected error fields to be omitted on success: %s", lines[0])
	}
}

func TestOpenBuildLogCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "builds.jsonl")
	logger, closer, err := OpenBuildLog(path)
	if err != nil {
		t.Fatalf("OpenBuildLog error: %v", err)
	}
	if err := logger.Write(BuildRecord{Result: ResultOK}); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if err := closer(); err != nil {
		t.Fatalf("close error: %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "warn", "json")
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "states", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record should be filtered: %s", out)
	}
	if !strings.Contains(out, `"states":3`) {
		t.Fatalf("expected json attrs, got %s", out)
	}

	if _, err := New(&buf, "loud", "text"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if _, err := New(&buf, "info", "xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Fatalf("expected default logger")
	}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	if FromContext(WithLogger(context.Background(), logger)) != logger {
		t.Fatalf("expected stored logger")
	}
}
