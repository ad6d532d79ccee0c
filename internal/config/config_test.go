package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Fatalf("port = %d, want 8080", cfg.Port)
	}
	if cfg.RetryMaxAttempts != 25 || cfg.RetryStep != 250*time.Millisecond {
		t.Fatalf("retry = %d/%v, want 25/250ms", cfg.RetryMaxAttempts, cfg.RetryStep)
	}
	if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
		t.Fatalf("database = %+v", cfg.Database)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("log level = %v, want info", cfg.LogLevel)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "pg.internal")
	t.Setenv("TELEGRAM_TEAM_CHATS", "team-a:-100123,team-b:42")
	t.Setenv("RETRY_STEP", "10ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Host != "pg.internal" {
		t.Fatalf("db host = %q, want %q", cfg.Database.Host, "pg.internal")
	}
	if cfg.Telegram.TeamChats["team-a"] != -100123 || cfg.Telegram.TeamChats["team-b"] != 42 {
		t.Fatalf("team chats = %v", cfg.Telegram.TeamChats)
	}
	if cfg.RetryStep != 10*time.Millisecond {
		t.Fatalf("retry step = %v, want 10ms", cfg.RetryStep)
	}
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("PORT", "not-an-int")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
