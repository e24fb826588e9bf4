package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"spatialops/internal/services"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	NewComponentLogger(logger, "sequence").Info("stage started", String(FieldStage, "spatialvi"))

	out := buf.String()
	if !strings.Contains(out, "[sequence]") {
		t.Fatalf("expected component tag in output, got %q", out)
	}
	if !strings.Contains(out, "stage=spatialvi") {
		t.Fatalf("expected stage attr in output, got %q", out)
	}
	if !strings.Contains(out, "stage started") {
		t.Fatalf("expected message in output, got %q", out)
	}
}

func TestJSONHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("launched", String(FieldRunID, "4X7abc"))

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if decoded["msg"] != "launched" {
		t.Fatalf("unexpected msg field: %v", decoded["msg"])
	}
	if decoded[FieldRunID] != "4X7abc" {
		t.Fatalf("unexpected run_id field: %v", decoded[FieldRunID])
	}
}

func TestWithContextAddsStageAndRunID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRunID(services.WithStage(context.Background(), "synindex"), "9aBcD")
	WithContext(ctx, logger).Info("polling")

	out := buf.String()
	if !strings.Contains(out, `"stage":"synindex"`) {
		t.Fatalf("expected stage field, got %q", out)
	}
	if !strings.Contains(out, `"run_id":"9aBcD"`) {
		t.Fatalf("expected run_id field, got %q", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered, got %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn line missing, got %q", out)
	}
}
