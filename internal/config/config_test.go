package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "EUR", cfg.Pair.Base)
	assert.Equal(t, "HUF", cfg.Pair.Target)
	assert.Equal(t, 10*time.Second, cfg.Sources.Timeout)
	assert.Equal(t, "csv", cfg.Store.Backend)
	assert.Equal(t, "data/exchange_rates.csv", cfg.StorePath())
	assert.Equal(t, "ma", cfg.Strategy.Default)
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
pair:
  base: usd
  target: huf
sources:
  priority: [otp, ecb]
  timeout: 3s
  endpoints:
    ecb: http://localhost:9000
store:
  backend: sqlite
  sqlite_path: /tmp/rates.db
strategy:
  default: rsi
  window: 21
`)
	t.Setenv("FX_TARGET", "CHF")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "USD", cfg.Pair.Base)
	assert.Equal(t, "CHF", cfg.Pair.Target)
	assert.Equal(t, []string{"otp", "ecb"}, cfg.Sources.Priority)
	assert.Equal(t, 3*time.Second, cfg.Sources.Timeout)
	assert.Equal(t, "http://localhost:9000", cfg.Sources.Endpoints["ecb"])
	assert.Equal(t, "/tmp/rates.db", cfg.StorePath())
	assert.Equal(t, 21, cfg.Strategy.Window)
	assert.True(t, cfg.TelegramEnabled())
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "pair: [unterminated"))
	assert.ErrorContains(t, err, "parse config")
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"same currency": func(c *Config) { c.Pair.Target = "EUR" },
		"bad code":      func(c *Config) { c.Pair.Base = "EURO" },
		"backend":       func(c *Config) { c.Store.Backend = "postgres" },
		"half telegram": func(c *Config) { c.Telegram.BotToken = "x" },
		"cron":          func(c *Config) { c.Schedule.FetchCron = "every day" },
		"window":        func(c *Config) { c.Strategy.Window = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
			require.NoError(t, err)
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
