package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataSource.Symbol != "SOLUSDT" || cfg.DataSource.Months != 1 {
		t.Errorf("unexpected data source defaults: %+v", cfg.DataSource)
	}
	if cfg.Analysis.Timezone != "+05:00" || cfg.Analysis.RSIPeriod != 14 || cfg.Analysis.TopK != 5 {
		t.Errorf("unexpected analysis defaults: %+v", cfg.Analysis)
	}
	if len(cfg.Symbols) != len(DefaultSymbols) {
		t.Errorf("expected %d default symbols, got %d", len(DefaultSymbols), len(cfg.Symbols))
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.DSN == "" {
		t.Errorf("unexpected database defaults: %+v", cfg.Database)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	path := writeConfig(t, `
data_source:
  symbol: ETHUSDT
  months: 3
  page_delay: 1s
analysis:
  min_occurrences: 4
  workers: 2
symbols:
  - symbol: BTCUSDT
    name: Bitcoin
schedule:
  target_day: tomorrow
`)
	t.Setenv("SCOUT_WORKERS", "8")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataSource.Symbol != "ETHUSDT" || cfg.DataSource.Months != 3 || cfg.DataSource.PageDelay != time.Second {
		t.Errorf("yaml not applied: %+v", cfg.DataSource)
	}
	if cfg.Analysis.MinOccurrences != 4 {
		t.Errorf("expected min occurrences 4, got %d", cfg.Analysis.MinOccurrences)
	}
	if cfg.Analysis.Workers != 8 {
		t.Errorf("env should override yaml workers, got %d", cfg.Analysis.Workers)
	}
	if cfg.Telegram.ChatID != "42" {
		t.Errorf("expected chat id from env, got %q", cfg.Telegram.ChatID)
	}
	if len(cfg.Symbols) != 1 || cfg.Symbols[0].Name != "Bitcoin" {
		t.Errorf("unexpected symbols: %+v", cfg.Symbols)
	}
	if off, err := cfg.TargetDayOffset(); err != nil || off != 1 {
		t.Errorf("expected tomorrow offset 1, got %d, %v", off, err)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "analysis: [")); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"zero workers", func(c *Config) { c.Analysis.Workers = 0 }, true},
		{"negative months", func(c *Config) { c.DataSource.Months = -1 }, true},
		{"rsi period", func(c *Config) { c.Analysis.RSIPeriod = 0 }, true},
		{"empty symbol", func(c *Config) { c.Symbols[0].Symbol = "" }, true},
		{"bad target day", func(c *Config) { c.Schedule.TargetDay = "yesterday" }, true},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, true},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres"; c.Database.DSN = "" }, true},
		{"postgres", func(c *Config) { c.Database.Driver = "postgres"; c.Database.DSN = "postgres://localhost/scout" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.applyDefaults()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateNotifier(t *testing.T) {
	cfg := &Config{}
	if err := cfg.ValidateNotifier(); err == nil {
		t.Error("expected error without bot token")
	}
	cfg.Telegram.BotToken = "TOKEN"
	if err := cfg.ValidateNotifier(); err == nil {
		t.Error("expected error without chat id")
	}
	cfg.Telegram.ChatID = "42"
	if err := cfg.ValidateNotifier(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
