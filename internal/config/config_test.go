package config

import (
	"os"
	"testing"
	"time"
)

var keys = []string{
	"TELEGRAM_TOKEN",
	"DATABASE_URL",
	"REPORT_INTERVAL_HOURS",
	"REPORT_TIME",
	"LOG_LEVEL",
	"TIMEZONE",
}

// clearEnv unsets every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range keys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "token")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.DatabaseURL != "task_tracker.db" {
		t.Fatalf("expected default database, got %q", cfg.DatabaseURL)
	}
	if cfg.LogLevel != "INFO" {
		t.Fatalf("expected INFO, got %q", cfg.LogLevel)
	}
	if cfg.ReportInterval() != 0 || cfg.ReportTime != "" {
		t.Fatalf("expected reports disabled, got %v / %q", cfg.ReportInterval(), cfg.ReportTime)
	}
	loc, err := cfg.Location()
	if err != nil || loc != time.Local {
		t.Fatalf("expected local timezone, got %v err=%v", loc, err)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", " token ")
	t.Setenv("DATABASE_URL", "data/tasks.db")
	t.Setenv("REPORT_INTERVAL_HOURS", "6")
	t.Setenv("REPORT_TIME", "08:30")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.TelegramToken != "token" {
		t.Fatalf("expected trimmed token, got %q", cfg.TelegramToken)
	}
	if cfg.DatabaseURL != "data/tasks.db" {
		t.Fatalf("expected data/tasks.db, got %q", cfg.DatabaseURL)
	}
	if cfg.ReportInterval() != 6*time.Hour {
		t.Fatalf("expected 6h, got %v", cfg.ReportInterval())
	}
	if cfg.ReportTime != "08:30" {
		t.Fatalf("expected 08:30, got %q", cfg.ReportTime)
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "UTC" {
		t.Fatalf("expected UTC, got %v err=%v", loc, err)
	}
}

func TestLoad_MissingToken(t *testing.T) {
	clearEnv(t)

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error without TELEGRAM_TOKEN")
	}
}

func TestLoad_BlankToken(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "   ")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for blank TELEGRAM_TOKEN")
	}
}

func TestLoad_BadTimezone(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("TIMEZONE", "Mars/Olympus")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for unknown timezone")
	}
}

func TestLoad_NegativeInterval(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("REPORT_INTERVAL_HOURS", "-1")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for negative interval")
	}
}

func TestLoad_MissingFileFallsBackToEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "token")

	cfg, err := Load(t.TempDir() + "/absent.yaml")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.TelegramToken != "token" {
		t.Fatalf("expected token from env, got %q", cfg.TelegramToken)
	}
}
