// Package config handles the YAML configuration file, including
// first-run creation with defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the JSON API.
	Listen string `yaml:"listen"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// EventsURL is the published-CSV export of the puja events sheet.
	EventsURL string `yaml:"events_url"`
	// PresenceURL is the published-CSV export of Gurudev's schedule.
	PresenceURL string `yaml:"presence_url"`

	// EventsRefresh and PresenceRefresh are cron expressions for the
	// two feed refresh cadences. The events sheet changes often; the
	// travel schedule rarely.
	EventsRefresh   string `yaml:"events_refresh"`
	PresenceRefresh string `yaml:"presence_refresh"`

	// DigestCron schedules the daily Telegram digest. Empty disables it.
	DigestCron string `yaml:"digest"`

	// LongRunningDays is the span above which an event displays as a
	// standing daily observance. PresenceExclusionDays is the span
	// above which an event never matches Gurudev's presence. The two
	// are tuned independently; do not unify them.
	LongRunningDays       int `yaml:"long_running_days"`
	PresenceExclusionDays int `yaml:"presence_exclusion_days"`

	// CachePath is the categorizer memoization file.
	CachePath string `yaml:"cache_path"`
	// DatabasePath is the SQLite database for digest subscriptions.
	DatabasePath string `yaml:"database_path"`

	// CategorizerURL enables event categorization when set.
	CategorizerURL string `yaml:"categorizer_url"`
	// CategorizerKey is sent as a bearer token. Overridable via the
	// CATEGORIZER_API_KEY environment variable.
	CategorizerKey string `yaml:"categorizer_key"`

	// TelegramToken enables the bot when set. Overridable via the
	// TELEGRAM_BOT_TOKEN environment variable.
	TelegramToken string `yaml:"telegram_token"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:                "127.0.0.1:8080",
		LogLevel:              "info",
		EventsURL:             "https://docs.google.com/spreadsheets/d/14lwC-hEqGyAEGfKD6_zjQDCqkKcKLt0i6sHYoNRXfWc/export?format=csv&gid=652206804",
		PresenceURL:           "https://docs.google.com/spreadsheets/d/14lwC-hEqGyAEGfKD6_zjQDCqkKcKLt0i6sHYoNRXfWc/export?format=csv&gid=1613600999",
		EventsRefresh:         "@hourly",
		PresenceRefresh:       "@every 12h",
		DigestCron:            "0 18 * * *",
		LongRunningDays:       120,
		PresenceExclusionDays: 60,
		CachePath:             "./data/categories.json",
		DatabasePath:          "./data/pujaboard.db",
	}
}

// Load reads the config file at path, creating it with defaults on
// first run. Environment variables override the secrets so they can
// be kept out of the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the CLI flag
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if saveErr := save(path, cfg); saveErr != nil {
			return nil, fmt.Errorf("create default config: %w", saveErr)
		}
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.TelegramToken = v
	}
	if v := os.Getenv("CATEGORIZER_API_KEY"); v != "" {
		cfg.CategorizerKey = v
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.EventsURL == "" {
		return fmt.Errorf("events_url is required")
	}
	if c.PresenceURL == "" {
		return fmt.Errorf("presence_url is required")
	}
	if c.LongRunningDays <= 0 {
		return fmt.Errorf("long_running_days must be positive")
	}
	if c.PresenceExclusionDays <= 0 {
		return fmt.Errorf("presence_exclusion_days must be positive")
	}
	return nil
}

func save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
