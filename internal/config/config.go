// Package config handles application configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported state backends.
const (
	StateBackendFile     = "file"
	StateBackendPostgres = "postgres"
	StateBackendBadger   = "badger"
)

const (
	paperBaseURL = "https://paper-api.alpaca.markets"
	liveBaseURL  = "https://api.alpaca.markets"
)

// Config defines the structure for all application configuration.
type Config struct {
	Symbol         string        `yaml:"symbol"`
	Quantity       float64       `yaml:"quantity"`
	Side           string        `yaml:"side"`
	Interval       time.Duration `yaml:"interval"`
	MinBuyingPower float64       `yaml:"min_buying_power"`
	OrdersLookback time.Duration `yaml:"orders_lookback"`
	DryRun         FlexBool      `yaml:"dry_run"`

	Alpaca  AlpacaConfig  `yaml:"alpaca"`
	State   StateConfig   `yaml:"state"`
	Log     LogConfig     `yaml:"log"`
	HTTP    HTTPConfig    `yaml:"http"`
	Driver  DriverConfig  `yaml:"driver"`
	Discord DiscordConfig `yaml:"discord"`

	APIKey    string `yaml:"-"` // Loaded from env
	APISecret string `yaml:"-"` // Loaded from env
}

// AlpacaConfig holds brokerage gateway settings.
type AlpacaConfig struct {
	BaseURL       string        `yaml:"base_url"`
	Paper         FlexBool      `yaml:"paper"`
	Timeout       time.Duration `yaml:"timeout"`
	RatePerMinute int           `yaml:"rate_per_minute"`
}

// StateConfig selects where the bot state record lives.
type StateConfig struct {
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	BadgerDir   string `yaml:"badger_dir"`
	PostgresDSN string `yaml:"postgres_dsn"`
	BotID       string `yaml:"bot_id"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// HTTPConfig holds the operator API listener settings.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// DriverConfig controls how often the engine is ticked.
type DriverConfig struct {
	Period time.Duration `yaml:"period"`
}

// DiscordConfig holds settings for Discord alerts. Alerts are disabled when
// BotToken is empty.
type DiscordConfig struct {
	BotToken              string `yaml:"bot_token"`
	UserID                string `yaml:"user_id"`
	BufferIntervalMinutes int    `yaml:"buffer_interval_minutes"`
}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		Symbol:         "BTC/USD",
		Quantity:       0.01,
		Side:           "buy",
		Interval:       60 * time.Second,
		MinBuyingPower: 100,
		OrdersLookback: 24 * time.Hour,
		Alpaca: AlpacaConfig{
			Paper:         true,
			Timeout:       10 * time.Second,
			RatePerMinute: 200,
		},
		State: StateConfig{
			Backend:   StateBackendFile,
			Path:      "bot_state.json",
			BadgerDir: "data/state",
			BotID:     "default",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 14,
		},
		HTTP:   HTTPConfig{Addr: ":8080"},
		Driver: DriverConfig{Period: time.Second},
		Discord: DiscordConfig{
			BufferIntervalMinutes: 1,
		},
	}
}

// LoadConfig loads configuration from the specified YAML file path and
// environment variables. If envPath is non-empty, that .env file is loaded
// into the environment first; variables already set take precedence.
func LoadConfig(configPath, envPath string) (*Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envPath, err)
		}
	}

	cfg := Default()

	if configPath != "" {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", configPath, err)
		}
	}

	applyEnv(cfg)

	if cfg.Alpaca.BaseURL == "" {
		if cfg.Alpaca.Paper {
			cfg.Alpaca.BaseURL = paperBaseURL
		} else {
			cfg.Alpaca.BaseURL = liveBaseURL
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load sensitive data and overrides from environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.APISecret = v
	}
	if v := os.Getenv("APCA_API_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("STATE_BACKEND"); v != "" {
		cfg.State.Backend = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.State.PostgresDSN = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("DISCORD_BOT_TOKEN"); v != "" {
		cfg.Discord.BotToken = v
	}
	if v := os.Getenv("DISCORD_USER_ID"); v != "" {
		cfg.Discord.UserID = v
	}
}

// Validate checks the values the bot cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Symbol) == "" {
		return fmt.Errorf("symbol must be set")
	}
	if c.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %v", c.Quantity)
	}
	switch strings.ToLower(c.Side) {
	case "buy", "sell":
	default:
		return fmt.Errorf("side must be buy or sell, got %q", c.Side)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", c.Interval)
	}
	if c.MinBuyingPower < 0 {
		return fmt.Errorf("min_buying_power must not be negative, got %v", c.MinBuyingPower)
	}
	if c.Driver.Period <= 0 {
		return fmt.Errorf("driver.period must be positive, got %v", c.Driver.Period)
	}
	switch c.State.Backend {
	case StateBackendFile:
		if c.State.Path == "" {
			return fmt.Errorf("state.path must be set for the file backend")
		}
	case StateBackendPostgres:
		if c.State.PostgresDSN == "" {
			return fmt.Errorf("state.postgres_dsn (or DATABASE_URL) must be set for the postgres backend")
		}
	case StateBackendBadger:
		if c.State.BadgerDir == "" {
			return fmt.Errorf("state.badger_dir must be set for the badger backend")
		}
	default:
		return fmt.Errorf("unknown state backend %q", c.State.Backend)
	}
	return nil
}
