package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"IntradayScreener/internal/collector"
	"IntradayScreener/internal/model"
	"IntradayScreener/internal/scanner"
	"IntradayScreener/internal/strategy"
)

// DefaultPath is used when neither --config nor CONFIG_PATH is given.
const DefaultPath = "configs/config.yaml"

// DefaultSymbols is the watch list of the headless screener.
var DefaultSymbols = []string{"RELIANCE.NS", "TCS.NS", "HDFCBANK.NS", "TATAMOTORS.NS", "INFY.NS", "ICICIBANK.NS"}

// Config holds all application configuration.
type Config struct {
	Screener struct {
		Symbols      []string `yaml:"symbols"`
		Interval     string   `yaml:"interval"`
		LookbackDays int      `yaml:"lookback_days"`
		Format       string   `yaml:"format"`
	} `yaml:"screener"`
	Market struct {
		Timezone string `yaml:"timezone"`
		Open     string `yaml:"open"`
		Close    string `yaml:"close"`
		// ExtendedHours keeps pre- and post-market candles returned by the provider.
		ExtendedHours bool `yaml:"extended_hours"`
	} `yaml:"market"`
	Strategy   strategy.Config `yaml:"strategy"`
	DataSource struct {
		Provider       string `yaml:"provider"`
		BaseURL        string `yaml:"base_url"`
		APIKey         string `yaml:"api_key"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		RequestsPerSec int    `yaml:"requests_per_sec"`
	} `yaml:"data_source"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		ScanCron        string `yaml:"scan_cron"`
		MarketHoursOnly bool   `yaml:"market_hours_only"`
		RunOnStart      bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none)
// into the process environment. Variables already set are kept and missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{Strategy: strategy.DefaultConfig()}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SCREENER_SYMBOLS"); v != "" {
		c.Screener.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("SCREENER_INTERVAL"); v != "" {
		c.Screener.Interval = v
	}
	if v := os.Getenv("SCREENER_LOOKBACK_DAYS"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("SCREENER_LOOKBACK_DAYS: %w", err)
		}
		c.Screener.LookbackDays = n
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_SOURCE_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_SOURCE_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Database.PostgresDSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CRON_SCAN"); v != "" {
		c.Schedule.ScanCron = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if len(c.Screener.Symbols) == 0 {
		c.Screener.Symbols = append([]string(nil), DefaultSymbols...)
	}
	if c.Screener.Interval == "" {
		c.Screener.Interval = string(model.Interval5m)
	}
	if c.Screener.LookbackDays == 0 {
		c.Screener.LookbackDays = 3
	}
	if c.Screener.Format == "" {
		c.Screener.Format = "lines"
	}
	if c.Market.Timezone == "" {
		c.Market.Timezone = "Asia/Kolkata"
	}
	if c.Market.Open == "" {
		c.Market.Open = "09:15"
	}
	if c.Market.Close == "" {
		c.Market.Close = "15:30"
	}
	c.Strategy.ApplyDefaults()
	if c.DataSource.Provider == "" {
		if c.DataSource.BaseURL != "" {
			c.DataSource.Provider = collector.ProviderREST
		} else {
			c.DataSource.Provider = collector.ProviderYahoo
		}
	}
	if c.DataSource.TimeoutSeconds == 0 {
		c.DataSource.TimeoutSeconds = 30
	}
	if c.DataSource.RequestsPerSec == 0 {
		c.DataSource.RequestsPerSec = 5
	}
	if c.Schedule.ScanCron == "" {
		c.Schedule.ScanCron = "0 */5 9-15 * * 1-5"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks the settings shared by every command.
func (c *Config) Validate() error {
	if len(c.Symbols()) == 0 {
		return fmt.Errorf("screener.symbols is empty")
	}
	if _, err := model.ParseInterval(c.Screener.Interval); err != nil {
		return fmt.Errorf("screener.interval: %w", err)
	}
	if err := collector.ValidateLookback(c.Screener.LookbackDays); err != nil {
		return fmt.Errorf("screener.lookback_days: %w", err)
	}
	switch c.Screener.Format {
	case "lines", "table":
	default:
		return fmt.Errorf("screener.format must be lines or table, got %q", c.Screener.Format)
	}
	if _, err := c.Session(); err != nil {
		return err
	}
	if err := c.Strategy.Validate(); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	switch c.DataSource.Provider {
	case collector.ProviderYahoo, collector.ProviderMock:
	case collector.ProviderREST:
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest provider")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if c.DataSource.TimeoutSeconds < 0 || c.DataSource.RequestsPerSec < 0 {
		return fmt.Errorf("data_source.timeout_seconds and requests_per_sec must not be negative")
	}
	return nil
}

// ValidateWatch checks the additional settings required by the watch loop.
func (c *Config) ValidateWatch() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if _, err := c.ChatID(); err != nil {
		return err
	}
	return nil
}

// Symbols returns the watch list normalized like every other symbol input.
func (c *Config) Symbols() []string {
	return scanner.ParseSymbols(c.Screener.Symbols...)
}

// Interval returns the parsed candle interval.
func (c *Config) Interval() model.Interval {
	iv, err := model.ParseInterval(c.Screener.Interval)
	if err != nil {
		return model.Interval5m
	}
	return iv
}

// ChatID parses telegram.chat_id.
func (c *Config) ChatID() (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Telegram.ChatID), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram.chat_id: %w", err)
	}
	return id, nil
}

// Session builds the trading session from the market section.
func (c *Config) Session() (model.Session, error) {
	loc, err := time.LoadLocation(c.Market.Timezone)
	if err != nil {
		return model.Session{}, fmt.Errorf("market.timezone: %w", err)
	}
	open, err := model.ParseClock(c.Market.Open)
	if err != nil {
		return model.Session{}, fmt.Errorf("market.open: %w", err)
	}
	closeAt, err := model.ParseClock(c.Market.Close)
	if err != nil {
		return model.Session{}, fmt.Errorf("market.close: %w", err)
	}
	if closeAt.Hour*60+closeAt.Minute <= open.Hour*60+open.Minute {
		return model.Session{}, fmt.Errorf("market.close %s must be after market.open %s", closeAt, open)
	}
	return model.Session{Location: loc, Open: open, Close: closeAt}, nil
}

// CollectorOptions maps the data_source section onto collector.Options.
func (c *Config) CollectorOptions(session model.Session) collector.Options {
	return collector.Options{
		Provider: c.DataSource.Provider,
		BaseURL:  c.DataSource.BaseURL,
		APIKey:   c.DataSource.APIKey,
		Client: collector.ClientOptions{
			Timeout:        time.Duration(c.DataSource.TimeoutSeconds) * time.Second,
			RequestsPerSec: c.DataSource.RequestsPerSec,
			ProxyURL:       c.Proxy,
		},
		Session:       session,
		FilterSession: !c.Market.ExtendedHours,
	}
}
