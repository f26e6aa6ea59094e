package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("ListenAddr = %q, want :8080", cfg.ListenAddr)
	}
	if cfg.BaseURL != "http://localhost:8080" {
		t.Fatalf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.DataDir != "./data" {
		t.Fatalf("DataDir = %q", cfg.DataDir)
	}
	if cfg.SessionDuration != 24*time.Hour {
		t.Fatalf("SessionDuration = %v", cfg.SessionDuration)
	}
	if cfg.RateLimit.RPS != 5 || cfg.RateLimit.Burst != 10 {
		t.Fatalf("unexpected rate limit defaults: %+v", cfg.RateLimit)
	}
}

func TestLoad_AddrFlagOverridesEnv(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9999")
	cfg, err := Load(":7777")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ListenAddr != ":7777" {
		t.Fatalf("ListenAddr = %q, want flag value :7777", cfg.ListenAddr)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATA_DIR", "/tmp/notes-data")
	t.Setenv("SESSION_DURATION", "30m")
	t.Setenv("AUTH_RATE_LIMIT_RPS", "2.5")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DataDir != "/tmp/notes-data" {
		t.Fatalf("DataDir = %q", cfg.DataDir)
	}
	if cfg.SessionDuration != 30*time.Minute {
		t.Fatalf("SessionDuration = %v", cfg.SessionDuration)
	}
	if cfg.RateLimit.RPS != 2.5 {
		t.Fatalf("RateLimit.RPS = %v", cfg.RateLimit.RPS)
	}
}

func TestLoad_InvalidDatabaseKey(t *testing.T) {
	t.Setenv("DB_KEY", "not-hex")
	_, err := Load("")
	if err == nil {
		t.Fatal("expected validation error for bad DB_KEY")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if !strings.Contains(verr.Error(), "DB_KEY") {
		t.Fatalf("error should mention DB_KEY: %v", verr)
	}
}

func TestLoad_ValidDatabaseKey(t *testing.T) {
	t.Setenv("DB_KEY", strings.Repeat("ab", 32))
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DatabaseKey != strings.Repeat("ab", 32) {
		t.Fatalf("DatabaseKey = %q", cfg.DatabaseKey)
	}
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("SESSION_DURATION", "sometimes")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SessionDuration != 24*time.Hour {
		t.Fatalf("SessionDuration = %v, want default", cfg.SessionDuration)
	}
}
