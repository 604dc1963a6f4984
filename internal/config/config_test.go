// Package config_test tests the config package.
package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/auto-buy-bot/internal/config"
	"gopkg.in/yaml.v3"
)

// Helper function to create a dummy config file with specific content
func createDummyConfigFile(t *testing.T, path, content string) {
	t.Helper()
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APCA_API_KEY_ID", "APCA_API_SECRET_KEY", "APCA_API_BASE_URL", "LOG_LEVEL",
		"STATE_BACKEND", "DATABASE_URL", "HTTP_ADDR", "DISCORD_BOT_TOKEN", "DISCORD_USER_ID",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.LoadConfig("", "")
	require.NoError(t, err)

	assert.Equal(t, "BTC/USD", cfg.Symbol)
	assert.Equal(t, 0.01, cfg.Quantity)
	assert.Equal(t, "buy", cfg.Side)
	assert.Equal(t, 60*time.Second, cfg.Interval)
	assert.Equal(t, 100.0, cfg.MinBuyingPower)
	assert.Equal(t, 24*time.Hour, cfg.OrdersLookback)
	assert.Equal(t, config.StateBackendFile, cfg.State.Backend)
	assert.Equal(t, "bot_state.json", cfg.State.Path)
	assert.Equal(t, "https://paper-api.alpaca.markets", cfg.Alpaca.BaseURL)
	assert.Equal(t, time.Second, cfg.Driver.Period)
	assert.False(t, cfg.DryRun.Bool())
}

func TestLoadConfig_FromYAML(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	createDummyConfigFile(t, configPath, `
symbol: "eth/usd"
quantity: 0.5
interval: 5m
min_buying_power: 250
dry_run: "yes"
alpaca:
  paper: "false"
  timeout: 3s
state:
  backend: badger
  badger_dir: /tmp/state
log:
  level: debug
  file: logs/bot.log
`)

	cfg, err := config.LoadConfig(configPath, "")
	require.NoError(t, err)

	assert.Equal(t, "eth/usd", cfg.Symbol)
	assert.Equal(t, 0.5, cfg.Quantity)
	assert.Equal(t, 5*time.Minute, cfg.Interval)
	assert.Equal(t, 250.0, cfg.MinBuyingPower)
	assert.True(t, cfg.DryRun.Bool())
	assert.False(t, cfg.Alpaca.Paper.Bool())
	assert.Equal(t, "https://api.alpaca.markets", cfg.Alpaca.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Alpaca.Timeout)
	assert.Equal(t, config.StateBackendBadger, cfg.State.Backend)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "logs/bot.log", cfg.Log.File)
	// untouched keys keep their defaults
	assert.Equal(t, "buy", cfg.Side)
}

// TestLoadConfig_EnvVarOverride tests if environment variables correctly override yaml values.
func TestLoadConfig_EnvVarOverride(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	createDummyConfigFile(t, configPath, `
log:
  level: info
state:
  backend: file
http:
  addr: ":9000"
`)

	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STATE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://bot@localhost/bot")
	t.Setenv("APCA_API_KEY_ID", "key_from_env")
	t.Setenv("APCA_API_SECRET_KEY", "secret_from_env")
	t.Setenv("HTTP_ADDR", ":7070")

	cfg, err := config.LoadConfig(configPath, "")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, config.StateBackendPostgres, cfg.State.Backend)
	assert.Equal(t, "postgres://bot@localhost/bot", cfg.State.PostgresDSN)
	assert.Equal(t, "key_from_env", cfg.APIKey)
	assert.Equal(t, "secret_from_env", cfg.APISecret)
	assert.Equal(t, ":7070", cfg.HTTP.Addr)
}

func TestLoadConfig_DotEnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("APCA_API_KEY_ID")
	os.Unsetenv("DISCORD_USER_ID")
	t.Cleanup(func() {
		os.Unsetenv("APCA_API_KEY_ID")
		os.Unsetenv("DISCORD_USER_ID")
	})

	envPath := filepath.Join(t.TempDir(), ".env")
	createDummyConfigFile(t, envPath, "APCA_API_KEY_ID=key_from_dotenv\nDISCORD_USER_ID=1234\n")

	cfg, err := config.LoadConfig("", envPath)
	require.NoError(t, err)
	assert.Equal(t, "key_from_dotenv", cfg.APIKey)
	assert.Equal(t, "1234", cfg.Discord.UserID)
}

func TestLoadConfig_MissingDotEnvIsIgnored(t *testing.T) {
	clearEnv(t)
	_, err := config.LoadConfig("", filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), "")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr string
	}{
		{"zero quantity", func(c *config.Config) { c.Quantity = 0 }, "quantity must be positive"},
		{"bad side", func(c *config.Config) { c.Side = "hold" }, "side must be buy or sell"},
		{"zero interval", func(c *config.Config) { c.Interval = 0 }, "interval must be positive"},
		{"negative guard", func(c *config.Config) { c.MinBuyingPower = -1 }, "min_buying_power"},
		{"unknown backend", func(c *config.Config) { c.State.Backend = "redis" }, "unknown state backend"},
		{"postgres without dsn", func(c *config.Config) { c.State.Backend = config.StateBackendPostgres }, "postgres_dsn"},
		{"empty symbol", func(c *config.Config) { c.Symbol = " " }, "symbol must be set"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	assert.NoError(t, config.Default().Validate())
}

func TestFlexBool(t *testing.T) {
	type doc struct {
		V config.FlexBool `yaml:"v"`
	}
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"v: true", true, false},
		{"v: false", false, false},
		{`v: "true"`, true, false},
		{`v: "on"`, true, false},
		{`v: "no"`, false, false},
		{"v: 1", true, false},
		{"v: 0", false, false},
		{"v: 0.5", true, false},
		{"v: ~", false, false},
		{`v: "maybe"`, false, true},
	}
	for _, tt := range tests {
		var d doc
		err := yaml.Unmarshal([]byte(tt.in), &d)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, d.V.Bool(), tt.in)
	}
}
