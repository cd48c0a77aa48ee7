package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.Journal.DailyWrapTime = "21:00"
		cfg.Notifications.Level = "all"
		cfg.Logging.Level = "info"
		return cfg
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg := base()
	cfg.Journal.DailyWrapTime = "25:00"
	if err := cfg.Validate(); err == nil {
		t.Error("wrap hour 25 accepted")
	}

	cfg = base()
	cfg.Journal.DailyWrapTime = "21"
	if err := cfg.Validate(); err == nil {
		t.Error("wrap time without minutes accepted")
	}

	cfg = base()
	cfg.Notifications.Level = "loud"
	if err := cfg.Validate(); err == nil {
		t.Error("bogus notification level accepted")
	}

	cfg = base()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Error("bogus log level accepted")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults("/tmp/edgeday-test")

	if cfg.Journal.UserID != "local" {
		t.Errorf("user id = %q, want local", cfg.Journal.UserID)
	}
	if cfg.Journal.DBPath != filepath.Join("/tmp/edgeday-test", "journal.db") {
		t.Errorf("db path = %q", cfg.Journal.DBPath)
	}
	if !strings.HasPrefix(cfg.Journal.ReportDir, "/tmp/edgeday-test") {
		t.Errorf("report dir = %q", cfg.Journal.ReportDir)
	}
	if !strings.HasSuffix(cfg.Logging.FilePath, "edgeday.log") {
		t.Errorf("log path = %q", cfg.Logging.FilePath)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("EDGEDAY_USER_ID", "trader-7")
	t.Setenv("EDGEDAY_WRAP_TIME", "22:15")
	t.Setenv("EDGEDAY_WEBHOOK_URL", "https://example.com/hook")

	cfg := &Config{}
	cfg.Journal.UserID = "local"
	cfg.Journal.DailyWrapTime = "21:00"
	applyEnvOverrides(cfg)

	if cfg.Journal.UserID != "trader-7" {
		t.Errorf("user id = %q", cfg.Journal.UserID)
	}
	if cfg.Journal.DailyWrapTime != "22:15" {
		t.Errorf("wrap time = %q", cfg.Journal.DailyWrapTime)
	}
	if !cfg.Notifications.Webhook.Enabled || cfg.Notifications.Webhook.URL != "https://example.com/hook" {
		t.Errorf("webhook = %+v", cfg.Notifications.Webhook)
	}
}
