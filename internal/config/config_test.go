package config

import (
	"strings"
	"testing"
	"time"
)

// TestLoad_Defaults tests defaults when no variables are set.
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LEAGUE_ENV", "")
	t.Setenv("LEAGUE_DB_DRIVER", "")
	t.Setenv("LEAGUE_RATE_LIMIT", "")
	t.Setenv("LEAGUE_DB_DSN", "")

	cfg := Load()
	if !strings.Contains(cfg.DBDSN, "_txlock=immediate") || !strings.Contains(cfg.DBDSN, "busy_timeout") {
		t.Fatalf("default DSN should take write locks up front: %q", cfg.DBDSN)
	}
	if cfg.Env != EnvDevelopment || cfg.DBDriver != DriverSQLite || cfg.Addr != ":8080" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.OutboxSchedule != "@every 1m" || cfg.ExpirySchedule != "@every 15m" {
		t.Fatalf("unexpected schedules: %q %q", cfg.OutboxSchedule, cfg.ExpirySchedule)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

// TestLoad_Overrides tests parsing of typed values and fallbacks.
func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LEAGUE_DB_DRIVER", DriverPostgres)
	t.Setenv("LEAGUE_RATE_LIMIT", "30")
	t.Setenv("LEAGUE_SLOW_QUERY", "250ms")
	t.Setenv("LEAGUE_LOCK_TTL", "not-a-duration")
	t.Setenv("LEAGUE_PUBLIC_BASE_URL", "https://league.example.org/")

	cfg := Load()
	if cfg.DBDriver != DriverPostgres || cfg.RateLimit != 30 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.SlowQuery != 250*time.Millisecond {
		t.Errorf("SlowQuery = %v", cfg.SlowQuery)
	}
	if cfg.LockTTL != 10*time.Second {
		t.Errorf("LockTTL should fall back, got %v", cfg.LockTTL)
	}
	if cfg.PublicBaseURL != "https://league.example.org" {
		t.Errorf("PublicBaseURL = %q", cfg.PublicBaseURL)
	}
}

// TestValidate_Production tests that production requires secrets.
func TestValidate_Production(t *testing.T) {
	cfg := Load()
	cfg.Env = EnvProduction
	cfg.JWTSecret = ""
	cfg.CSRFKey = "short"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected production validation error")
	}
	for _, want := range []string{"LEAGUE_JWT_SECRET", "LEAGUE_CSRF_KEY"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}

	cfg.JWTSecret = "secret"
	cfg.CSRFKey = strings.Repeat("k", 32)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid production config: %v", err)
	}
}

// TestValidate_RejectsUnknownValues tests enum checks.
func TestValidate_RejectsUnknownValues(t *testing.T) {
	cfg := Load()
	cfg.DBDriver = "mysql"
	cfg.AvailabilityMode = "median"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "LEAGUE_DB_DRIVER") || !strings.Contains(err.Error(), "LEAGUE_AVAILABILITY_MODE") {
		t.Fatalf("expected driver and mode errors, got %v", err)
	}
}

// TestCSRFKeyBytes tests the key is always 32 bytes.
func TestCSRFKeyBytes(t *testing.T) {
	for _, key := range []string{"", "short", strings.Repeat("x", 40)} {
		cfg := Config{CSRFKey: key}
		if got := len(cfg.CSRFKeyBytes()); got != 32 {
			t.Errorf("key %q: len = %d", key, got)
		}
	}
}
