package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	defaultTokenExpiry    = 5 * time.Minute
	defaultSweepInterval  = 60 * time.Second
	defaultScoringTimeMin = 5 * time.Second
	defaultScoringTimeMax = 15 * time.Second
	defaultFetchTimeout   = 30 * time.Second
	defaultJWTTTL         = 24 * time.Hour
)

// Config holds application configuration
type Config struct {
	Port        string `env:"PORT" envDefault:"5001"`
	Environment string `env:"ENV" envDefault:"development"`

	// API credentials. APIPassword may be plain text or a bcrypt hash.
	APIUsername string        `env:"API_USERNAME"`
	APIPassword string        `env:"API_PASSWORD"`
	JWTSecret   string        `env:"JWT_SECRET"`
	JWTTTL      time.Duration `env:"JWT_TTL" envDefault:"24h"`

	// Job lifecycle
	TokenExpiry    time.Duration `env:"TOKEN_EXPIRY" envDefault:"5m"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL" envDefault:"60s"`
	ScoringTimeMin time.Duration `env:"SCORING_TIME_MIN" envDefault:"5s"`
	ScoringTimeMax time.Duration `env:"SCORING_TIME_MAX" envDefault:"15s"`
	FetchTimeout   time.Duration `env:"FETCH_TIMEOUT" envDefault:"30s"`

	// RequireClientSelector rejects initiate requests that do not name a client
	RequireClientSelector bool `env:"REQUIRE_CLIENT_SELECTOR" envDefault:"false"`

	// Presentation values attached to completed scores
	LimitAmount int `env:"LIMIT_AMOUNT" envDefault:"30000"`

	// Optional Postgres-backed client registry
	DatabaseURL string `env:"DATABASE_URL"`

	// Security configuration
	AllowedOrigins     string `env:"ALLOWED_ORIGINS"`
	EnableRateLimit    bool   `env:"ENABLE_RATE_LIMIT" envDefault:"true"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"100"`
	MaxRequestSize     int64  `env:"MAX_REQUEST_SIZE" envDefault:"1048576"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads a .env file if present and parses configuration from the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("load .env file: %w", err)
		}
	}
	return New()
}

// New parses configuration from environment variables
func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Sanitize()
	return cfg, nil
}

// Sanitize applies guardrails to values loaded from env
func (c *Config) Sanitize() {
	if c.TokenExpiry <= 0 {
		c.TokenExpiry = defaultTokenExpiry
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = defaultSweepInterval
	}
	if c.ScoringTimeMin <= 0 {
		c.ScoringTimeMin = defaultScoringTimeMin
	}
	if c.ScoringTimeMax <= 0 {
		c.ScoringTimeMax = defaultScoringTimeMax
	}
	if c.ScoringTimeMin > c.ScoringTimeMax {
		c.ScoringTimeMin, c.ScoringTimeMax = c.ScoringTimeMax, c.ScoringTimeMin
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = defaultFetchTimeout
	}
	if c.JWTTTL <= 0 {
		c.JWTTTL = defaultJWTTTL
	}
	if c.RateLimitPerMinute <= 0 {
		c.RateLimitPerMinute = 100
	}
	if c.MaxRequestSize <= 0 {
		c.MaxRequestSize = 1 << 20
	}
}

// Validate reports configuration that would leave the API unusable
func (c *Config) Validate() error {
	if c.APIUsername == "" || c.APIPassword == "" {
		return errors.New("API_USERNAME and API_PASSWORD are required")
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required in production")
	}
	return nil
}

// AverageScoringDuration is the midpoint of the expected scoring time range
func (c *Config) AverageScoringDuration() time.Duration {
	return (c.ScoringTimeMin + c.ScoringTimeMax) / 2
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HasDatabase returns true if a Postgres registry is configured
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// JWTEnabled returns true if bearer tokens can be issued and verified
func (c *Config) JWTEnabled() bool {
	return c.JWTSecret != ""
}

// GetAllowedOrigins returns a slice of allowed CORS origins
func (c *Config) GetAllowedOrigins() []string {
	if c.AllowedOrigins == "" {
		return []string{}
	}
	origins := strings.Split(c.AllowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}
