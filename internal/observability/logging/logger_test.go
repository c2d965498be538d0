package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for input, expected := range tests {
		if got := parseLevel(input); got != expected {
			t.Fatalf("parseLevel(%q) = %v, want %v", input, got, expected)
		}
	}
}

func TestNewJSONLoggerToTagsService(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLoggerTo(&buf, "kyc-api", "warn")

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info record to be filtered, got %q", buf.String())
	}

	logger.Warn("extraction_failed", "extraction_id", "ext-1")
	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode log record: %v", err)
	}
	if record["service"] != "kyc-api" {
		t.Fatalf("expected service tag, got %v", record["service"])
	}
	if record["msg"] != "extraction_failed" || record["extraction_id"] != "ext-1" {
		t.Fatalf("unexpected record: %v", record)
	}
}

func TestNewJSONLoggerToMasksIdentifiers(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLoggerTo(&buf, "kyc-worker", "info")

	logger.Info("identifier_validated", "identification_number", "22AAAAA0000A1Z5", "format", "valid")
	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode log record: %v", err)
	}
	if record["identification_number"] != "***********A1Z5" {
		t.Fatalf("expected masked identifier, got %v", record["identification_number"])
	}
	if record["format"] != "valid" {
		t.Fatalf("expected other attributes untouched, got %v", record["format"])
	}
}

func TestMask(t *testing.T) {
	tests := map[string]string{
		"":           "",
		"abc":        "***",
		"ABCDE1234F": "******234F",
		" 560001 ":   "**0001",
	}
	for input, expected := range tests {
		if got := Mask(input); got != expected {
			t.Fatalf("Mask(%q) = %q, want %q", input, got, expected)
		}
	}
}
