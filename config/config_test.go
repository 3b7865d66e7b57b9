package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Default().Validate())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "paper.yaml")
	cfg := Default()
	cfg.Account.Balance = 25000
	cfg.Trading.Symbols = []string{"BTC_USD", "ETH_USD"}
	require.NoError(t, cfg.SaveToFile(path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Mode, got.Mode)
	assert.InDelta(t, 25000, got.Account.Balance, 1e-9)
	assert.Equal(t, []string{"BTC_USD", "ETH_USD"}, got.Trading.Symbols)
	assert.InDelta(t, cfg.Risk.MaxDrawdown, got.Risk.MaxDrawdown, 1e-9)
	assert.Equal(t, cfg.Strategies.Enabled, got.Strategies.Enabled)
}

func TestLoadFromFileJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "paper.json")
	data := `{
		"mode": "paper",
		"account": {"balance": 10000, "currency": "USD"},
		"risk": {
			"max_drawdown": 0.2, "max_daily_loss": 0.05, "max_open_positions": 3,
			"position_size": 0.1, "max_position_size": 0.2, "risk_per_trade": 0.02,
			"stop_loss": 0.02, "take_profit": 0.04, "trailing_stop": 0.01
		},
		"trading": {"symbols": ["BTC_USD"], "timeframe": "H1"},
		"strategies": {"enabled": ["ema-cross"]},
		"monitoring": {},
		"journal": {"type": "none"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "paper", cfg.Mode)
	assert.InDelta(t, 0.02, cfg.Risk.RiskPerTrade, 1e-9)
}

func TestLoadFromFileMissing(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateFirstBadField(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad mode", func(c *Config) { c.Mode = "turbo" }},
		{"zero balance", func(c *Config) { c.Account.Balance = 0 }},
		{"missing currency", func(c *Config) { c.Account.Currency = "" }},
		{"bad risk limit", func(c *Config) { c.Risk.MaxDrawdown = 2 }},
		{"no symbols", func(c *Config) { c.Trading.Symbols = nil }},
		{"bad slippage", func(c *Config) { c.Trading.MaxSlippage = 1.5 }},
		{"bad timeout", func(c *Config) { c.Trading.PendingTimeout = "soon" }},
		{"no strategies", func(c *Config) { c.Strategies.Enabled = nil }},
		{"default not enabled", func(c *Config) { c.Strategies.Default = "mystery" }},
		{"bad interval", func(c *Config) { c.Monitoring.Interval = "often" }},
		{"csv without files", func(c *Config) { c.Journal = JournalConfig{Type: "csv"} }},
		{"sqlite without path", func(c *Config) { c.Journal = JournalConfig{Type: "sqlite"} }},
		{"unknown journal", func(c *Config) { c.Journal.Type = "parquet" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
