package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Token store backends.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// EnvPrefix namespaces every environment variable read by the client.
const EnvPrefix = "CAMPUSFIX"

// ClientConfig holds configuration for the CampusFix client.
type ClientConfig struct {
	APIURL     string        `envconfig:"API_URL" default:"http://localhost:8000/api"` // Base URL of the REST API
	Timeout    time.Duration `envconfig:"TIMEOUT" default:"30s"`                       // Per-request timeout
	TokenStore string        `envconfig:"TOKEN_STORE" default:"file"`                  // file, sqlite, redis, memory
	StateDir   string        `envconfig:"STATE_DIR"`                                   // Defaults to ~/.campusfix
	RedisAddr  string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	Profile    string        `envconfig:"PROFILE" default:"default"` // Namespaces stored credentials
	LogLevel   string        `envconfig:"LOG_LEVEL" default:"warn"`
	LogFormat  string        `envconfig:"LOG_FORMAT" default:"text"`
}

// DefaultClientConfig returns sensible defaults without consulting the environment.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		APIURL:     "http://localhost:8000/api",
		Timeout:    30 * time.Second,
		TokenStore: StoreFile,
		RedisAddr:  "127.0.0.1:6379",
		Profile:    "default",
		LogLevel:   "warn",
		LogFormat:  "text",
	}
}

// Load reads configuration from CAMPUSFIX_* environment variables and
// validates it. A .env file in the working directory is loaded first if
// present; variables that are already set take precedence over it.
func Load() (ClientConfig, error) {
	cfg, err := FromEnv()
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// FromEnv is Load without validation, for callers that apply overrides
// (such as command-line flags) before validating.
func FromEnv() (ClientConfig, error) {
	_ = godotenv.Load()

	var cfg ClientConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("load config: %w", err)
	}
	if cfg.StateDir == "" {
		dir, err := DefaultStateDir()
		if err != nil {
			return ClientConfig{}, err
		}
		cfg.StateDir = dir
	}
	return cfg, nil
}

// DefaultStateDir returns ~/.campusfix.
func DefaultStateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".campusfix"), nil
}

// Validate checks that the configuration is usable.
func (c ClientConfig) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("invalid api url %q: %w", c.APIURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid api url %q: scheme must be http or https", c.APIURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid api url %q: missing host", c.APIURL)
	}
	switch c.TokenStore {
	case StoreFile, StoreSQLite, StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("unknown token store %q", c.TokenStore)
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}

// BaseURL returns the API URL without a trailing slash.
func (c ClientConfig) BaseURL() string {
	return strings.TrimRight(c.APIURL, "/")
}
