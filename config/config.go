// Package config loads the session configuration. The file is read once at
// session start; nothing reloads at runtime.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/quantcore/monitor"
	"github.com/rustyeddy/quantcore/risk"
)

// Config is the complete session configuration.
type Config struct {
	Mode       string           `json:"mode" yaml:"mode"` // "paper" or "live"
	Account    AccountConfig    `json:"account" yaml:"account"`
	Risk       risk.Limits      `json:"risk" yaml:"risk"`
	Trading    TradingConfig    `json:"trading" yaml:"trading"`
	Strategies StrategiesConfig `json:"strategies" yaml:"strategies"`
	Monitoring MonitoringConfig `json:"monitoring" yaml:"monitoring"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
}

// AccountConfig seeds the paper ledger.
type AccountConfig struct {
	Balance  float64 `json:"balance" yaml:"balance"`
	Currency string  `json:"currency" yaml:"currency"`
}

// TradingConfig holds execution parameters.
type TradingConfig struct {
	Symbols        []string `json:"symbols" yaml:"symbols"`
	Timeframe      string   `json:"timeframe" yaml:"timeframe"`
	Leverage       float64  `json:"leverage" yaml:"leverage"`
	MaxSlippage    float64  `json:"max_slippage" yaml:"max_slippage"`
	LotStep        float64  `json:"lot_step" yaml:"lot_step"` // paper venue only; live venues report their own
	SlippageSeed   int64    `json:"slippage_seed" yaml:"slippage_seed"`
	PendingTimeout string   `json:"pending_timeout" yaml:"pending_timeout"` // e.g. "30s"
}

// ParsePendingTimeout converts the timeout string; empty means disabled.
func (t TradingConfig) ParsePendingTimeout() (time.Duration, error) {
	if t.PendingTimeout == "" {
		return 0, nil
	}
	return time.ParseDuration(t.PendingTimeout)
}

// StrategiesConfig names the enabled strategy identifiers, resolved into
// concrete instances at session start.
type StrategiesConfig struct {
	Enabled    []string `json:"enabled" yaml:"enabled"`
	Default    string   `json:"default" yaml:"default"`
	FastPeriod int      `json:"fast_period" yaml:"fast_period"`
	SlowPeriod int      `json:"slow_period" yaml:"slow_period"`
}

// MonitoringConfig holds alert thresholds and the check cadence.
type MonitoringConfig struct {
	Thresholds monitor.Thresholds `json:"thresholds" yaml:"thresholds"`
	Interval   string             `json:"interval" yaml:"interval"` // e.g. "1m"
	FeedAddr   string             `json:"feed_addr" yaml:"feed_addr"`
}

// ParseInterval converts the monitoring interval; empty means every bar.
func (m MonitoringConfig) ParseInterval() (time.Duration, error) {
	if m.Interval == "" {
		return 0, nil
	}
	return time.ParseDuration(m.Interval)
}

// JournalConfig selects the audit backend.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	OrdersFile string `json:"orders_file,omitempty" yaml:"orders_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile reads a YAML or JSON config and validates it. Any validation
// failure is fatal at session start.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile writes the configuration as YAML.
func (c *Config) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks the configuration. The first bad field wins so startup
// failures point at one thing to fix.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Mode) {
	case "paper", "live":
	default:
		return fmt.Errorf("mode must be \"paper\" or \"live\", got %q", c.Mode)
	}
	if c.Account.Balance <= 0 {
		return fmt.Errorf("account.balance must be positive")
	}
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if err := c.Risk.Validate(); err != nil {
		return err
	}
	if len(c.Trading.Symbols) == 0 {
		return fmt.Errorf("trading.symbols is required")
	}
	if c.Trading.MaxSlippage < 0 || c.Trading.MaxSlippage > 1 {
		return fmt.Errorf("trading.max_slippage must be in [0,1]")
	}
	if _, err := c.Trading.ParsePendingTimeout(); err != nil {
		return fmt.Errorf("trading.pending_timeout: %w", err)
	}
	if len(c.Strategies.Enabled) == 0 {
		return fmt.Errorf("strategies.enabled is required")
	}
	if c.Strategies.Default != "" && !contains(c.Strategies.Enabled, c.Strategies.Default) {
		return fmt.Errorf("strategies.default %q is not in strategies.enabled", c.Strategies.Default)
	}
	if _, err := c.Monitoring.ParseInterval(); err != nil {
		return fmt.Errorf("monitoring.interval: %w", err)
	}
	switch c.Journal.Type {
	case "csv":
		if c.Journal.OrdersFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal orders_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "none", "":
	default:
		return fmt.Errorf("journal.type must be \"csv\", \"sqlite\" or \"none\"")
	}
	return nil
}

// Default returns a runnable paper configuration.
func Default() *Config {
	return &Config{
		Mode: "paper",
		Account: AccountConfig{
			Balance:  10000,
			Currency: "USD",
		},
		Risk: risk.Limits{
			MaxDrawdown:      0.20,
			MaxDailyLoss:     0.05,
			MaxOpenPositions: 3,
			MaxCorrelation:   0.85,
			PositionSize:     0.10,
			MaxPositionSize:  0.20,
			RiskPerTrade:     0.02,
			StopLoss:         0.02,
			TakeProfit:       0.04,
			TrailingStop:     0.01,
		},
		Trading: TradingConfig{
			Symbols:        []string{"BTC_USD"},
			Timeframe:      "H1",
			MaxSlippage:    0.0005,
			LotStep:        0.0001,
			SlippageSeed:   1,
			PendingTimeout: "30s",
		},
		Strategies: StrategiesConfig{
			Enabled:    []string{"ema-cross"},
			Default:    "ema-cross",
			FastPeriod: 10,
			SlowPeriod: 30,
		},
		Monitoring: MonitoringConfig{
			Thresholds: monitor.Thresholds{
				Drawdown:     0.15,
				DailyLoss:    0.04,
				PositionSize: 0.18,
			},
			Interval: "1m",
		},
		Journal: JournalConfig{
			Type:       "csv",
			OrdersFile: "./orders.csv",
			EquityFile: "./equity.csv",
		},
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
