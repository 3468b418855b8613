package logger

import (
	"testing"

	"github.com/spigell/job-assistant/internal/jobs"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  provider  ", Value: "  Gemini  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "provider" || fields[0].String != "Gemini" {
		t.Fatalf("unexpected provider field: %+v", fields[0])
	}

	if empty := StringFields(); len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	WithFields(logger, zap.String("foo", "bar")).Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if ctx := entries[0].ContextMap(); ctx["foo"] != "bar" {
		t.Fatalf("expected field to be bar, got %q", ctx["foo"])
	}

	enriched := WithFields(nil, zap.String("baz", "qux"))
	if enriched == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}
	enriched.Info("another log")
}

func TestWithCommonFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithCommonFields(zap.New(core), "ollama", "llama3.1:8b").Info("test log")

	ctx := observed.All()[0].ContextMap()
	if ctx[FieldProvider] != "ollama" {
		t.Fatalf("expected provider field to be ollama, got %q", ctx[FieldProvider])
	}
	if ctx[FieldModel] != "llama3.1:8b" {
		t.Fatalf("unexpected model field %q", ctx[FieldModel])
	}

	if empty := CommonFields("", ""); len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithRun(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	logger, runID := WithRun(zap.New(core), "check")
	if _, err := uuid.Parse(runID); err != nil {
		t.Fatalf("expected uuid run id, got %q: %v", runID, err)
	}

	logger.Info("started")

	ctx := observed.All()[0].ContextMap()
	if ctx[FieldRunID] != runID || ctx[FieldCommand] != "check" {
		t.Fatalf("unexpected context: %v", ctx)
	}
}

func TestJobFields(t *testing.T) {
	fields := JobFields(&jobs.Posting{ID: "abc123", Title: "SRE", Company: ""})
	if len(fields) != 2 {
		t.Fatalf("expected empty company to be skipped, got %d fields", len(fields))
	}
	if JobFields(nil) != nil {
		t.Fatalf("expected nil fields for nil posting")
	}
}
