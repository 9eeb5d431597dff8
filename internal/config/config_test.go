package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"DATASTORE", "DEFAULT_MONTHLY_GOAL", "TIMEZONE", "LLM_TIMEOUT", "BATCH_CONCURRENCY", "GEMINI_API_KEY", "GENAI_API_KEY", "GOOGLE_API_KEY", "API_SCHEDULE", "OPERATOR_USER_IDS", "LEDGER_REDIS_URL"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Datastore != DatastoreMemory {
		t.Errorf("Datastore = %q, want %q", cfg.Datastore, DatastoreMemory)
	}
	if cfg.DefaultMonthlyGoal.String() != "400" {
		t.Errorf("DefaultMonthlyGoal = %s, want 400", cfg.DefaultMonthlyGoal)
	}
	if cfg.LLM.Timeout != 8*time.Second {
		t.Errorf("LLM.Timeout = %v, want 8s", cfg.LLM.Timeout)
	}
	if cfg.BatchConcurrency != 1 {
		t.Errorf("BatchConcurrency = %d, want 1", cfg.BatchConcurrency)
	}
	if cfg.Location != time.UTC {
		t.Errorf("Location = %v, want UTC", cfg.Location)
	}
	if cfg.APISchedule {
		t.Error("APISchedule = true, want the worker to own scheduling by default")
	}
	if len(cfg.OperatorIDs) != 0 || cfg.SharedLedger() {
		t.Errorf("unexpected operators %v / shared ledger %v", cfg.OperatorIDs, cfg.SharedLedger())
	}
	if cfg.WeeklySchedule != "0 8 * * 1" || cfg.MonthlySchedule != "0 8 1 * *" {
		t.Errorf("unexpected schedules %q / %q", cfg.WeeklySchedule, cfg.MonthlySchedule)
	}
}

func TestLoad_APIKeyFallbackOrder(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GENAI_API_KEY", "genai-key")
	t.Setenv("GOOGLE_API_KEY", "google-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLM.APIKey != "genai-key" {
		t.Errorf("APIKey = %q, want genai-key", cfg.LLM.APIKey)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"negative goal", "DEFAULT_MONTHLY_GOAL", "-5"},
		{"non numeric goal", "DEFAULT_MONTHLY_GOAL", "lots"},
		{"bad timezone", "TIMEZONE", "Mars/Olympus"},
		{"bad timeout", "LLM_TIMEOUT", "soon"},
		{"bad concurrency", "BATCH_CONCURRENCY", "-1"},
		{"unknown datastore", "DATASTORE", "mongo"},
		{"bad api schedule", "API_SCHEDULE", "sometimes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%q: expected error", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_BigQueryRequiresProject(t *testing.T) {
	t.Setenv("DATASTORE", DatastoreBigQuery)
	t.Setenv("GCP_PROJECT", "")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")

	if _, err := Load(); err == nil {
		t.Error("expected error when GCP_PROJECT is missing")
	}
}

func TestLoad_SchedulingAndOperators(t *testing.T) {
	t.Setenv("API_SCHEDULE", "true")
	t.Setenv("OPERATOR_USER_IDS", " ops, ,admin ")
	t.Setenv("LEDGER_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.APISchedule {
		t.Error("APISchedule = false, want true")
	}
	if len(cfg.OperatorIDs) != 2 || cfg.OperatorIDs[0] != "ops" || cfg.OperatorIDs[1] != "admin" {
		t.Errorf("OperatorIDs = %q", cfg.OperatorIDs)
	}
	if !cfg.SharedLedger() {
		t.Error("SharedLedger() = false with LEDGER_REDIS_URL set")
	}
}
