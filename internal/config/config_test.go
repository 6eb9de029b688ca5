package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg := Load()

	if cfg.Port != "8090" {
		t.Errorf("Port = %s, want 8090", cfg.Port)
	}
	if cfg.DBDriver != "sqlite" {
		t.Errorf("DBDriver = %s, want sqlite", cfg.DBDriver)
	}
	if cfg.JWTExpiry != 168*time.Hour {
		t.Errorf("JWTExpiry = %v, want 168h", cfg.JWTExpiry)
	}
	if cfg.GenerationInterval != time.Hour {
		t.Errorf("GenerationInterval = %v, want 1h", cfg.GenerationInterval)
	}
	if !cfg.LLMFallback {
		t.Error("LLMFallback = false, want true")
	}
	if cfg.RateLimitRequests != 100 {
		t.Errorf("RateLimitRequests = %d, want 100", cfg.RateLimitRequests)
	}

	week, err := cfg.Week()
	if err != nil {
		t.Fatalf("Week: %v", err)
	}
	if week.Start != time.Sunday {
		t.Errorf("week start = %v, want Sunday", week.Start)
	}
	if !cfg.IsDevelopment() || cfg.IsProduction() {
		t.Error("environment predicates disagree with APP_ENV=development")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("WEEK_START_DAY", "monday")
	t.Setenv("TIMEZONE", "Europe/Berlin")
	t.Setenv("GENERATION_INTERVAL", "0")
	t.Setenv("RATE_LIMIT_REQUESTS", "not-a-number")
	t.Setenv("LLM_FALLBACK", "false")

	cfg := Load()

	week, _ := cfg.Week()
	if week.Start != time.Monday {
		t.Errorf("week start = %v, want Monday", week.Start)
	}
	if cfg.GenerationInterval != 0 {
		t.Errorf("GenerationInterval = %v, want 0", cfg.GenerationInterval)
	}
	if cfg.RateLimitRequests != 100 {
		t.Errorf("RateLimitRequests = %d, want fallback 100", cfg.RateLimitRequests)
	}
	if cfg.LLMFallback {
		t.Error("LLMFallback = true, want false")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{WeekStartDay: "someday", Timezone: "UTC"}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate accepted an unknown week start day")
	}

	cfg = &Config{WeekStartDay: "sunday", Timezone: "Mars/Olympus"}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate accepted an unknown time zone")
	}
}

func TestSanitized_DropsSecrets(t *testing.T) {
	cfg := &Config{
		AppName:     "Cadence",
		JWTSecret:   "s3cret",
		LLMAPIKey:   "sk-123",
		S3SecretKey: "aws",
		SentryDSN:   "https://key@sentry.io/1",
	}

	s := cfg.Sanitized()
	if s.JWTSecret != "" || s.LLMAPIKey != "" || s.S3SecretKey != "" || s.SentryDSN != "" {
		t.Errorf("Sanitized kept a secret: %+v", s)
	}
	if s.AppName != "Cadence" {
		t.Errorf("AppName = %s, want Cadence", s.AppName)
	}
}
