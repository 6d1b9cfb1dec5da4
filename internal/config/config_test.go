package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-test/deep"

	"github.com/pfrederiksen/nyc-events/internal/event"
)

var envKeys = []string{
	"DAYS_AHEAD", "MAX_EVENTS_IN_EMAIL", "ENABLE_CALENDAR_FILTER", "LOG_LEVEL",
	"SMTP_SERVER", "SMTP_PORT", "SMTP_USER", "SMTP_PASSWORD", "EMAIL_RECIPIENT",
	"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := deep.Equal(cfg, DefaultConfig()); diff != nil {
		t.Error(diff)
	}
	if cfg.Scraper.Concurrency != 1 {
		t.Errorf("Scraper.Concurrency = %d, want 1 (one page at a time)", cfg.Scraper.Concurrency)
	}
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
timezone: America/Chicago
days_ahead: 14
keywords: [jazz, poetry]
calendar:
  enabled: false
  provider: AppleScript
  names: ["ixD Events"]
  feeds:
    - name: School
      url: https://example.com/school.ics
scraper:
  concurrency: 2
  timeout: 10s
  sources: [luma, meetup]
notify:
  channel: Telegram
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Timezone != "America/Chicago" || cfg.DaysAhead != 14 {
		t.Errorf("unexpected timezone/days: %s %d", cfg.Timezone, cfg.DaysAhead)
	}
	if cfg.MaxEvents != 12 {
		t.Errorf("MaxEvents = %d, want default 12", cfg.MaxEvents)
	}
	if diff := deep.Equal(cfg.Keywords, []string{"jazz", "poetry"}); diff != nil {
		t.Error(diff)
	}
	if cfg.Calendar.Enabled || cfg.Calendar.Provider != ProviderAppleScript {
		t.Errorf("unexpected calendar config: %+v", cfg.Calendar)
	}
	if cfg.Calendar.LookbackDays != DefaultLookbackDays {
		t.Errorf("LookbackDays = %d", cfg.Calendar.LookbackDays)
	}
	if cfg.Scraper.Timeout != 10*time.Second || cfg.Scraper.Concurrency != 2 {
		t.Errorf("unexpected scraper config: %+v", cfg.Scraper)
	}
	if cfg.Notify.Channel != ChannelTelegram {
		t.Errorf("Channel = %q", cfg.Notify.Channel)
	}

	sources, err := cfg.Sources()
	if err != nil {
		t.Fatalf("Sources() error = %v", err)
	}
	if diff := deep.Equal(sources, []event.Source{event.SourceLuma, event.SourceMeetup}); diff != nil {
		t.Error(diff)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "days_ahead: 14\nmax_events: 20\n")

	t.Setenv("DAYS_AHEAD", "3")
	t.Setenv("MAX_EVENTS_IN_EMAIL", "5")
	t.Setenv("ENABLE_CALENDAR_FILTER", "false")
	t.Setenv("SMTP_USER", "me@example.com")
	t.Setenv("SMTP_PASSWORD", "secret")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DaysAhead != 3 || cfg.MaxEvents != 5 {
		t.Errorf("env did not override: days=%d max=%d", cfg.DaysAhead, cfg.MaxEvents)
	}
	if cfg.Calendar.Enabled {
		t.Error("ENABLE_CALENDAR_FILTER=false should disable the calendar")
	}
	if !cfg.SMTP.Configured() || cfg.SMTP.Port != 2525 || cfg.SMTP.To() != "me@example.com" {
		t.Errorf("unexpected smtp config: %+v", cfg.SMTP)
	}
	if cfg.Telegram.Configured() {
		t.Error("telegram should need both token and chat id")
	}
	if cfg.Horizon() != 3*24*time.Hour {
		t.Errorf("Horizon() = %v", cfg.Horizon())
	}
}

func TestLoad_BadEnvNumberKeepsValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("DAYS_AHEAD", "soon")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DaysAhead != DefaultDaysAhead {
		t.Errorf("DaysAhead = %d, want %d", cfg.DaysAhead, DefaultDaysAhead)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "days_ahead: [1, 2"},
		{"bad timezone", "timezone: Mars/Olympus"},
		{"bad provider", "calendar:\n  provider: outlook\n"},
		{"bad channel", "notify:\n  channel: pigeon\n"},
		{"bad source", "scraper:\n  sources: [facebook]\n"},
		{"feed without url", "calendar:\n  feeds:\n    - name: empty\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("Load() expected error, got nil")
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	cfg := &Config{}
	cfg.Normalize()

	if cfg.Timezone != DefaultTimezone || cfg.DaysAhead != DefaultDaysAhead || cfg.MaxEvents != 12 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Schedule != DefaultSchedule {
		t.Errorf("Schedule = %q", cfg.Schedule)
	}
	if len(cfg.Scraper.Sources) != len(event.Sources) {
		t.Errorf("expected all sources by default, got %v", cfg.Scraper.Sources)
	}
	if cfg.SMTP.Server != DefaultSMTPServer || cfg.SMTP.Port != DefaultSMTPPort {
		t.Errorf("unexpected smtp defaults: %+v", cfg.SMTP)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("TELEGRAM_CHAT_ID=4242\nSMTP_USER=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TELEGRAM_CHAT_ID", "")
	os.Unsetenv("TELEGRAM_CHAT_ID")
	t.Setenv("SMTP_USER", "from-env")

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}

	if got := os.Getenv("TELEGRAM_CHAT_ID"); got != "4242" {
		t.Errorf("TELEGRAM_CHAT_ID = %q, want 4242", got)
	}
	if got := os.Getenv("SMTP_USER"); got != "from-env" {
		t.Errorf("SMTP_USER = %q, existing env should win", got)
	}
}
