package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/nzoschke/cadence/internal/schedule"
)

type Config struct {
	// Application
	AppName         string
	AppEnv          string
	Port            string
	ShutdownTimeout time.Duration

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret string
	JWTExpiry time.Duration

	// Scheduling
	WeekStartDay       string        // first day of new weekly quota windows; stored windows finish their seven days
	Timezone           string        // IANA zone used to decide "today"
	GenerationInterval time.Duration // background daily-task generation, 0 disables

	// LLM (OpenAI or any OpenAI-compatible endpoint such as Ollama)
	LLMAPIKey   string
	LLMBaseURL  string
	LLMModel    string
	LLMTimeout  time.Duration
	LLMFallback bool

	// Rate limiting for /api routes
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Observability (optional)
	SentryDSN string

	// Storage for archive exports (optional; S3-compatible: MinIO, AWS S3, R2, etc.)
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string
	S3PresignExpiry time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName:         envString("APP_NAME", "Cadence"),
		AppEnv:          envRequired("APP_ENV"), // Required: 'development' or 'production'
		Port:            envString("PORT", "8090"),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 15*time.Second),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/cadence.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		// Security
		JWTSecret: envRequired("JWT_SECRET"),
		JWTExpiry: envDuration("JWT_EXPIRY", 168*time.Hour), // 7 days

		// Scheduling
		WeekStartDay:       envString("WEEK_START_DAY", "sunday"),
		Timezone:           envString("TIMEZONE", "UTC"),
		GenerationInterval: envDuration("GENERATION_INTERVAL", time.Hour),

		// LLM
		LLMAPIKey:   envString("LLM_API_KEY", ""),
		LLMBaseURL:  envString("LLM_BASE_URL", ""),
		LLMModel:    envString("LLM_MODEL", "gpt-4o-mini"),
		LLMTimeout:  envDuration("LLM_TIMEOUT", 30*time.Second),
		LLMFallback: envBool("LLM_FALLBACK", true),

		// Rate limiting
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   envDuration("RATE_LIMIT_WINDOW", 15*time.Minute),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage
		S3Region:        envString("S3_REGION", "us-east-1"),
		S3Bucket:        envString("S3_BUCKET", ""),
		S3AccessKey:     envString("S3_ACCESS_KEY", ""),
		S3SecretKey:     envString("S3_SECRET_KEY", ""),
		S3Endpoint:      envString("S3_ENDPOINT", ""),                     // Optional: for non-AWS providers
		S3PresignExpiry: envDuration("S3_PRESIGN_EXPIRY", 1*time.Hour), // Export download links
	}

	err = cfg.Validate()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// Validate checks the values that are parsed later (week start, time zone).
func (c *Config) Validate() error {
	_, err := c.Week()
	if err != nil {
		return err
	}
	_, err = c.Location()
	return err
}

// validateProduction ensures all required services are configured for production deployments.
// Development allows the LLM to be missing and answered with fallback text.
func validateProduction(cfg *Config) {
	if cfg.LLMAPIKey == "" && cfg.LLMBaseURL == "" && !cfg.LLMFallback {
		slog.Error("production deployment requires LLM_API_KEY or LLM_BASE_URL when LLM_FALLBACK=false",
			"hint", "set LLM_FALLBACK=true to serve fallback text without a provider")
		os.Exit(1)
	}
}

func (c *Config) Week() (schedule.Week, error) {
	return schedule.NewWeek(c.WeekStartDay)
}

func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return i
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Sanitized returns a copy of the config with only public/safe fields.
// All secrets, credentials, and sensitive data are excluded.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:            c.AppName,
		AppEnv:             c.AppEnv,
		Port:               c.Port,
		DBDriver:           c.DBDriver,
		WeekStartDay:       c.WeekStartDay,
		Timezone:           c.Timezone,
		GenerationInterval: c.GenerationInterval,
		LLMModel:           c.LLMModel,
		LLMFallback:        c.LLMFallback,
		S3Bucket:           c.S3Bucket,
		S3Endpoint:         c.S3Endpoint,
	}
}
