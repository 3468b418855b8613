package cmd

import (
	"testing"
	"time"
)

func TestGetConfigFillsSectionsFromDefaults(t *testing.T) {
	for _, env := range envBindings {
		t.Setenv(env, "")
	}

	config, err := getConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config == nil {
		t.Fatal("expected a config")
	}

	sections := map[string]bool{
		"google":     config.Google != nil,
		"resume":     config.Resume != nil,
		"thresholds": config.Thresholds != nil,
		"ai":         config.AI != nil,
		"mail":       config.Mail != nil,
		"storage":    config.Storage != nil,
		"output":     config.Output != nil,
		"research":   config.Research != nil,
	}
	for name, ok := range sections {
		if !ok {
			t.Fatalf("expected %s section to be set from defaults", name)
		}
	}
	if config.AI.Ollama == nil || config.AI.Gemini == nil || config.AI.Breaker == nil {
		t.Fatalf("expected nested ai sections, got %+v", config.AI)
	}

	if config.Storage.Driver != "file" {
		t.Fatalf("expected file storage driver, got %q", config.Storage.Driver)
	}
	if config.Thresholds.Research != 70 || config.Thresholds.Notification != 80 {
		t.Fatalf("unexpected thresholds %+v", config.Thresholds)
	}
	if config.AI.Breaker.OpenTimeout != time.Minute {
		t.Fatalf("expected one minute breaker timeout, got %s", config.AI.Breaker.OpenTimeout)
	}
	if config.Metrics.Textfile != "" {
		t.Fatalf("expected metrics textfile to be empty, got %q", config.Metrics.Textfile)
	}
}

func TestGetConfigReadsMetricsTextfileFromEnv(t *testing.T) {
	t.Setenv("METRICS_TEXTFILE", "/tmp/job-assistant.prom")

	config, err := getConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Metrics.Textfile != "/tmp/job-assistant.prom" {
		t.Fatalf("unexpected metrics textfile %q", config.Metrics.Textfile)
	}
}

func TestRedactHidesSecrets(t *testing.T) {
	config, err := getConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	config.Vault.Token = "s.secret"
	config.Storage.DatabaseURL = "postgres://user:pass@db/jobs"

	got := redact(config)
	if got.Vault.Token != redacted || got.Storage.DatabaseURL != redacted {
		t.Fatalf("expected secrets to be redacted, got %+v %+v", got.Vault, got.Storage)
	}
	if config.Storage.DatabaseURL != "postgres://user:pass@db/jobs" {
		t.Fatal("redact must not modify the original config")
	}
}
