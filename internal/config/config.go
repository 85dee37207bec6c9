package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"PatternScout/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		BaseURL     string        `yaml:"base_url"`
		Symbol      string        `yaml:"symbol"`
		Months      int           `yaml:"months"`
		PageDelay   time.Duration `yaml:"page_delay"`
		SymbolDelay time.Duration `yaml:"symbol_delay"`
	} `yaml:"data_source"`
	Analysis struct {
		Timezone          string `yaml:"timezone"`
		MinOccurrences    int    `yaml:"min_occurrences"`
		DayMinOccurrences int    `yaml:"day_min_occurrences"`
		TopK              int    `yaml:"top_k"`
		RSIPeriod         int    `yaml:"rsi_period"`
		RSIWindow         int    `yaml:"rsi_window"`
		PerSymbol         int    `yaml:"per_symbol"`
		MaxSymbols        int    `yaml:"max_symbols"`
		Workers           int    `yaml:"workers"`
	} `yaml:"analysis"`
	Symbols  []model.Asset `yaml:"symbols"`
	Schedule struct {
		ScanCron  string `yaml:"scan_cron"`
		RSICron   string `yaml:"rsi_cron"`
		TargetDay string `yaml:"target_day"` // "today" or "tomorrow"
	} `yaml:"schedule"`
	Database struct {
		Driver string `yaml:"driver"` // "sqlite" or "postgres"
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`
	Redis struct {
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`
	Export struct {
		Dir    string `yaml:"dir"`
		Format string `yaml:"format"`
	} `yaml:"export"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// DefaultSymbols is the coin list scanned when none is configured.
var DefaultSymbols = []model.Asset{
	{Symbol: "SOLUSDT", Name: "Solana"},
	{Symbol: "ETHUSDT", Name: "Ethereum"},
	{Symbol: "XRPUSDT", Name: "XRP"},
	{Symbol: "BTCUSDT", Name: "Bitcoin"},
	{Symbol: "BCHUSDT", Name: "Bitcoin Cash"},
	{Symbol: "LTCUSDT", Name: "Litecoin"},
	{Symbol: "XMRUSDT", Name: "Monero"},
	{Symbol: "DAIUSDT", Name: "Dai"},
	{Symbol: "AAVEUSDT", Name: "Aave"},
	{Symbol: "BNBUSDT", Name: "Binance Coin"},
	{Symbol: "TRXUSDT", Name: "Tron"},
	{Symbol: "XLMUSDT", Name: "Stellar"},
	{Symbol: "AVAXUSDT", Name: "Avalanche"},
	{Symbol: "OPUSDT", Name: "Optimism"},
	{Symbol: "DOGEUSDT", Name: "Dogecoin"},
	{Symbol: "LINKUSDT", Name: "Chainlink"},
	{Symbol: "ATOMUSDT", Name: "Cosmos"},
	{Symbol: "ADAUSDT", Name: "Cardano"},
	{Symbol: "SUIUSDT", Name: "Sui"},
	{Symbol: "INJUSDT", Name: "Injective"},
	{Symbol: "GRTUSDT", Name: "The Graph"},
	{Symbol: "HBARUSDT", Name: "Hedera"},
	{Symbol: "UNIUSDT", Name: "Uniswap"},
	{Symbol: "DOTUSDT", Name: "Polkadot"},
	{Symbol: "TONUSDT", Name: "Toncoin"},
	{Symbol: "TAOUSDT", Name: "Bittensor"},
	{Symbol: "ENAUSDT", Name: "Ethena"},
	{Symbol: "ONDOUSDT", Name: "Ondo"},
	{Symbol: "ICPUSDT", Name: "Internet Computer"},
	{Symbol: "APTUSDT", Name: "Aptos"},
	{Symbol: "POLUSDT", Name: "Polygon"},
	{Symbol: "ALGOUSDT", Name: "Algorand"},
	{Symbol: "PENGUUSDT", Name: "Pudgy Penguins"},
}

// Load reads .env (if present) and the YAML file, then applies environment
// variable overrides and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

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

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("BINANCE_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("SCOUT_SYMBOL"); v != "" {
		c.DataSource.Symbol = v
	}
	if v := os.Getenv("SCOUT_TIMEZONE"); v != "" {
		c.Analysis.Timezone = v
	}
	if v := os.Getenv("SCOUT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Analysis.Workers = n
		}
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("CRON_SCAN"); v != "" {
		c.Schedule.ScanCron = v
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) applyDefaults() {
	if c.DataSource.BaseURL == "" {
		c.DataSource.BaseURL = "https://api.binance.com"
	}
	if c.DataSource.Symbol == "" {
		c.DataSource.Symbol = "SOLUSDT"
	}
	if c.DataSource.Months == 0 {
		c.DataSource.Months = 1
	}
	if c.DataSource.PageDelay == 0 {
		c.DataSource.PageDelay = 300 * time.Millisecond
	}
	if c.DataSource.SymbolDelay == 0 {
		c.DataSource.SymbolDelay = 100 * time.Millisecond
	}
	if c.Analysis.Timezone == "" {
		c.Analysis.Timezone = "+05:00"
	}
	if c.Analysis.MinOccurrences == 0 {
		c.Analysis.MinOccurrences = 3
	}
	if c.Analysis.DayMinOccurrences == 0 {
		c.Analysis.DayMinOccurrences = 2
	}
	if c.Analysis.TopK == 0 {
		c.Analysis.TopK = 5
	}
	if c.Analysis.RSIPeriod == 0 {
		c.Analysis.RSIPeriod = 14
	}
	if c.Analysis.RSIWindow == 0 {
		c.Analysis.RSIWindow = 24
	}
	if c.Analysis.PerSymbol == 0 {
		c.Analysis.PerSymbol = 1
	}
	if c.Analysis.MaxSymbols == 0 {
		c.Analysis.MaxSymbols = 10
	}
	if c.Analysis.Workers == 0 {
		c.Analysis.Workers = 4
	}
	if len(c.Symbols) == 0 {
		c.Symbols = append([]model.Asset(nil), DefaultSymbols...)
	}
	if c.Schedule.ScanCron == "" {
		c.Schedule.ScanCron = "0 0 6 * * *"
	}
	if c.Schedule.RSICron == "" {
		c.Schedule.RSICron = "0 5 * * * *"
	}
	if c.Schedule.TargetDay == "" {
		c.Schedule.TargetDay = "today"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = "data/pattern_scout.db"
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 30 * time.Minute
	}
	if c.Export.Format == "" {
		c.Export.Format = "csv"
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "data/export"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// TargetDayOffset maps schedule.target_day to a day offset from today.
func (c *Config) TargetDayOffset() (int, error) {
	switch strings.ToLower(strings.TrimSpace(c.Schedule.TargetDay)) {
	case "today":
		return 0, nil
	case "tomorrow":
		return 1, nil
	default:
		return 0, fmt.Errorf("schedule.target_day must be today or tomorrow, got %q", c.Schedule.TargetDay)
	}
}

// Validate checks field ranges. Telegram settings are only required by the
// daemon, see ValidateNotifier.
func (c *Config) Validate() error {
	if c.DataSource.Months <= 0 {
		return fmt.Errorf("data_source.months must be positive")
	}
	if c.Analysis.RSIPeriod < 1 {
		return fmt.Errorf("analysis.rsi_period must be at least 1")
	}
	if c.Analysis.Workers < 1 {
		return fmt.Errorf("analysis.workers must be at least 1")
	}
	if c.Analysis.MinOccurrences < 1 || c.Analysis.DayMinOccurrences < 1 {
		return fmt.Errorf("analysis min occurrences must be at least 1")
	}
	for i, s := range c.Symbols {
		if s.Symbol == "" {
			return fmt.Errorf("symbols[%d].symbol is required", i)
		}
	}
	if _, err := c.TargetDayOffset(); err != nil {
		return err
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for postgres")
	}
	return nil
}

// ValidateNotifier checks the settings the Telegram notifier needs.
func (c *Config) ValidateNotifier() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}
