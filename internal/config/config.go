package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Pair struct {
		Base   string `yaml:"base"`
		Target string `yaml:"target"`
	} `yaml:"pair"`
	Sources struct {
		Priority  []string          `yaml:"priority"`
		Timeout   time.Duration     `yaml:"timeout"`
		Endpoints map[string]string `yaml:"endpoints"`
		RateLimit struct {
			RPS   float64 `yaml:"rps"`
			Burst int     `yaml:"burst"`
		} `yaml:"rate_limit"`
		Breaker struct {
			Failures    uint32        `yaml:"failures"`
			OpenTimeout time.Duration `yaml:"open_timeout"`
		} `yaml:"breaker"`
	} `yaml:"sources"`
	Store struct {
		Backend    string `yaml:"backend"`
		Path       string `yaml:"path"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"store"`
	Strategy struct {
		Default     string `yaml:"default"`
		Window      int    `yaml:"window"`
		ShortWindow int    `yaml:"short_window"`
	} `yaml:"strategy"`
	Schedule struct {
		FetchCron string `yaml:"fetch_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Metrics struct {
		Textfile string `yaml:"textfile"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error: defaults and the environment still apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("FX_BASE"); v != "" {
		cfg.Pair.Base = v
	}
	if v := os.Getenv("FX_TARGET"); v != "" {
		cfg.Pair.Target = v
	}
	if v := os.Getenv("RATES_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Store.SQLitePath = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("FETCH_CRON"); v != "" {
		cfg.Schedule.FetchCron = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.Pair.Base = strings.ToUpper(strings.TrimSpace(c.Pair.Base))
	c.Pair.Target = strings.ToUpper(strings.TrimSpace(c.Pair.Target))
	if c.Pair.Base == "" {
		c.Pair.Base = "EUR"
	}
	if c.Pair.Target == "" {
		c.Pair.Target = "HUF"
	}
	if c.Sources.Timeout == 0 {
		c.Sources.Timeout = 10 * time.Second
	}
	if c.Sources.RateLimit.RPS == 0 {
		c.Sources.RateLimit.RPS = 2
	}
	if c.Sources.RateLimit.Burst == 0 {
		c.Sources.RateLimit.Burst = 1
	}
	if c.Sources.Breaker.Failures == 0 {
		c.Sources.Breaker.Failures = 3
	}
	if c.Sources.Breaker.OpenTimeout == 0 {
		c.Sources.Breaker.OpenTimeout = 30 * time.Minute
	}
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" {
		c.Store.Backend = "csv"
	}
	if c.Store.Path == "" {
		c.Store.Path = "data/exchange_rates.csv"
	}
	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = "data/rate_sentinel.db"
	}
	if c.Strategy.Default == "" {
		c.Strategy.Default = "ma"
	}
	if c.Schedule.FetchCron == "" {
		c.Schedule.FetchCron = "0 0 17 * * 1-5"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// StorePath returns the location used by the configured backend.
func (c *Config) StorePath() string {
	if c.Store.Backend == "sqlite" {
		return c.Store.SQLitePath
	}
	return c.Store.Path
}

// TelegramEnabled reports whether notifications can be sent.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if len(c.Pair.Base) != 3 || len(c.Pair.Target) != 3 {
		return fmt.Errorf("pair must be two ISO-4217 codes, got %q/%q", c.Pair.Base, c.Pair.Target)
	}
	if c.Pair.Base == c.Pair.Target {
		return fmt.Errorf("pair.base and pair.target must differ")
	}
	if c.Sources.Timeout < 0 {
		return fmt.Errorf("sources.timeout must be positive")
	}
	if c.Sources.RateLimit.RPS < 0 {
		return fmt.Errorf("sources.rate_limit.rps must not be negative")
	}
	switch c.Store.Backend {
	case "csv", "sqlite", "memory":
	default:
		return fmt.Errorf("store.backend must be csv, sqlite or memory, got %q", c.Store.Backend)
	}
	if c.Strategy.Window < 0 || c.Strategy.ShortWindow < 0 {
		return fmt.Errorf("strategy windows must not be negative")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if _, err := cron.NewParser(CronSpec).Parse(c.Schedule.FetchCron); err != nil {
		return fmt.Errorf("schedule.fetch_cron: %w", err)
	}
	return nil
}

// CronSpec is the six-field (with seconds) format used by schedule.fetch_cron.
const CronSpec = cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor
