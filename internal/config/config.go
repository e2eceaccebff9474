package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read as fallbacks for unset flags
const (
	EnvEndpoint    = "HASURA_GRAPHQL_ENDPOINT"
	EnvAdminSecret = "HASURA_GRAPHQL_ADMIN_SECRET"
	EnvDatabaseURL = "HASURA_TRACK_DB_URL"
	EnvTimeout     = "HASURA_TRACK_TIMEOUT"
	EnvRateLimit   = "HASURA_TRACK_RATE_LIMIT"
	EnvLogLevel    = "LOG_LEVEL"

	DefaultEnvFile = ".env"
	DefaultTimeout = 30 * time.Second
)

type Config struct {
	Endpoint    string
	AdminSecret string
	DatabaseURL string // empty means discovery goes through run_sql
	Timeout     time.Duration
	RateLimit   float64 // administrative API requests per second, 0 means unlimited
}

// LoadEnvFile loads variables from path without overriding ones already set.
// A missing default .env file is not an error.
func LoadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// FromEnv fills the fields of cfg that are still zero from the environment.
func (cfg *Config) FromEnv() error {
	if cfg.Endpoint == "" {
		cfg.Endpoint = os.Getenv(EnvEndpoint)
	}
	if cfg.AdminSecret == "" {
		cfg.AdminSecret = os.Getenv(EnvAdminSecret)
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv(EnvDatabaseURL)
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
		if v := os.Getenv(EnvTimeout); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s value %q: %w", EnvTimeout, v, err)
			}
			cfg.Timeout = d
		}
	}

	if cfg.RateLimit == 0 {
		if v := os.Getenv(EnvRateLimit); v != "" {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid %s value %q: must be a non-negative number", EnvRateLimit, v)
			}
			cfg.RateLimit = n
		}
	}

	return nil
}

// Validate checks that the configuration can be used to reach the engine
func (cfg *Config) Validate() error {
	if cfg.Endpoint == "" {
		return fmt.Errorf("--endpoint or %s is required", EnvEndpoint)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", cfg.Timeout)
	}
	if cfg.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative, got %v", cfg.RateLimit)
	}
	return nil
}

// ParseLogLevel maps debug, info, warn and error to slog levels
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: must be debug, info, warn, or error", s)
	}
}
