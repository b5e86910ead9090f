// Package config loads process configuration from LEAGUE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Env  string
	Addr string

	DBDriver string
	DBDSN    string

	// Access tokens are issued by the external auth provider and verified here.
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	AuthCookie  string

	CSRFKey string

	// Redis is optional. When empty, approvals are serialized in-process.
	RedisURL string

	ResendKey     string
	EmailFrom     string
	EmailReplyTo  string
	PublicBaseURL string

	SlowQuery   time.Duration
	SlowRequest time.Duration

	RateLimit       int
	RateLimitWindow time.Duration

	AvailabilityMode string
	LockTTL          time.Duration

	OutboxSchedule  string
	ExpirySchedule  string
	OutboxBatchSize int
	OutboxBaseDelay time.Duration
	OutboxMaxDelay  time.Duration
	ShutdownTimeout time.Duration
}

// Load reads the configuration from the environment. Unparseable numbers and
// durations fall back to their defaults.
func Load() Config {
	return Config{
		Env:  envOrDefault("LEAGUE_ENV", EnvDevelopment),
		Addr: envOrDefault("LEAGUE_ADDR", ":8080"),

		DBDriver: envOrDefault("LEAGUE_DB_DRIVER", DriverSQLite),
		DBDSN:    envOrDefault("LEAGUE_DB_DSN", "league.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_txlock=immediate"),

		JWTSecret:   os.Getenv("LEAGUE_JWT_SECRET"),
		JWTIssuer:   os.Getenv("LEAGUE_JWT_ISSUER"),
		JWTAudience: envOrDefault("LEAGUE_JWT_AUDIENCE", "authenticated"),
		AuthCookie:  envOrDefault("LEAGUE_AUTH_COOKIE", "league_access_token"),

		CSRFKey: os.Getenv("LEAGUE_CSRF_KEY"),

		RedisURL: os.Getenv("LEAGUE_REDIS_URL"),

		ResendKey:     os.Getenv("LEAGUE_RESEND_KEY"),
		EmailFrom:     envOrDefault("LEAGUE_EMAIL_FROM", "League <noreply@league.local>"),
		EmailReplyTo:  os.Getenv("LEAGUE_EMAIL_REPLY_TO"),
		PublicBaseURL: strings.TrimRight(envOrDefault("LEAGUE_PUBLIC_BASE_URL", "http://localhost:8080"), "/"),

		SlowQuery:   envDuration("LEAGUE_SLOW_QUERY", 100*time.Millisecond),
		SlowRequest: envDuration("LEAGUE_SLOW_REQUEST", 500*time.Millisecond),

		RateLimit:       envInt("LEAGUE_RATE_LIMIT", 120),
		RateLimitWindow: envDuration("LEAGUE_RATE_LIMIT_WINDOW", time.Minute),

		AvailabilityMode: envOrDefault("LEAGUE_AVAILABILITY_MODE", "peak"),
		LockTTL:          envDuration("LEAGUE_LOCK_TTL", 10*time.Second),

		OutboxSchedule:  envOrDefault("LEAGUE_OUTBOX_SCHEDULE", "@every 1m"),
		ExpirySchedule:  envOrDefault("LEAGUE_EXPIRY_SCHEDULE", "@every 15m"),
		OutboxBatchSize: envInt("LEAGUE_OUTBOX_BATCH", 50),
		OutboxBaseDelay: envDuration("LEAGUE_OUTBOX_BASE_DELAY", time.Minute),
		OutboxMaxDelay:  envDuration("LEAGUE_OUTBOX_MAX_DELAY", time.Hour),
		ShutdownTimeout: envDuration("LEAGUE_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// IsProduction returns true when running with LEAGUE_ENV=production.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Validate rejects configurations the server must not start with.
// PRE: c was produced by Load or populated by a test
// POST: nil when the server can start; production requires secrets
func (c Config) Validate() error {
	var errs []error
	if c.DBDriver != DriverSQLite && c.DBDriver != DriverPostgres {
		errs = append(errs, fmt.Errorf("LEAGUE_DB_DRIVER must be %q or %q", DriverSQLite, DriverPostgres))
	}
	if c.DBDSN == "" {
		errs = append(errs, errors.New("LEAGUE_DB_DSN is required"))
	}
	if c.AvailabilityMode != "peak" && c.AvailabilityMode != "sum" {
		errs = append(errs, errors.New("LEAGUE_AVAILABILITY_MODE must be 'peak' or 'sum'"))
	}
	if c.RateLimit <= 0 {
		errs = append(errs, errors.New("LEAGUE_RATE_LIMIT must be positive"))
	}
	if c.IsProduction() {
		if c.JWTSecret == "" {
			errs = append(errs, errors.New("LEAGUE_JWT_SECRET is required in production"))
		}
		if len(c.CSRFKey) < 32 {
			errs = append(errs, errors.New("LEAGUE_CSRF_KEY must be at least 32 bytes in production"))
		}
	}
	return errors.Join(errs...)
}

// CSRFKeyBytes returns the CSRF key, padded or truncated to 32 bytes as gorilla/csrf expects.
// Development falls back to a fixed key.
func (c Config) CSRFKeyBytes() []byte {
	key := c.CSRFKey
	if key == "" {
		key = "league-development-csrf-key-0000"
	}
	b := []byte(key)
	if len(b) >= 32 {
		return b[:32]
	}
	padded := make([]byte, 32)
	copy(padded, b)
	return padded
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
