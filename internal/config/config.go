// Package config loads and validates client config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mmynk/meumural/internal/service"
)

// Config holds client configuration loaded from the environment.
type Config struct {
	// APIBaseURL is the backend base endpoint (e.g. http://172.31.160.1:8416).
	APIBaseURL string `mapstructure:"API_BASE_URL"`
	// RequestTimeout bounds every backend call.
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	// DBPath is the sqlite file holding the local mirror and the persisted session.
	DBPath string `mapstructure:"DB_PATH"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// DeletePolicy is fire-and-forget or strict.
	DeletePolicy string `mapstructure:"DELETE_POLICY"`
	// OfflineExamples serves placeholder groups when offline with nothing mirrored.
	OfflineExamples bool `mapstructure:"OFFLINE_EXAMPLES"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored. Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("API_BASE_URL", "http://172.31.160.1:8416")
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("DB_PATH", "./data/meumural.db")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DELETE_POLICY", service.FireAndForget.String())
	v.SetDefault("OFFLINE_EXAMPLES", true)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if cfg.APIBaseURL == "" {
		return nil, errors.New("config: API_BASE_URL must be set")
	}
	if cfg.RequestTimeout <= 0 {
		return nil, errors.New("config: REQUEST_TIMEOUT must be positive")
	}
	if cfg.DBPath == "" {
		return nil, errors.New("config: DB_PATH must be set")
	}
	if _, err := service.ParseDeletePolicy(cfg.DeletePolicy); err != nil {
		return nil, fmt.Errorf("config: DELETE_POLICY: %w", err)
	}

	return &cfg, nil
}

// Policy returns the parsed delete policy. Load has already validated it.
func (c *Config) Policy() service.DeletePolicy {
	p, _ := service.ParseDeletePolicy(c.DeletePolicy)
	return p
}
