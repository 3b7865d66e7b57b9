// Package risk is the stateful gate between ranked candidates and order
// sizing. Every candidate passes through Evaluate, which applies the
// portfolio limits in a fixed order so denials are deterministic and
// explainable.
package risk

import "fmt"

// Limits are the portfolio risk parameters, loaded once at session start.
// All fractional fields are expressed as fractions of equity (0.02 == 2%).
type Limits struct {
	MaxDrawdown      float64 `json:"max_drawdown" yaml:"max_drawdown"`
	MaxDailyLoss     float64 `json:"max_daily_loss" yaml:"max_daily_loss"`
	MaxOpenPositions int     `json:"max_open_positions" yaml:"max_open_positions"`
	MaxCorrelation   float64 `json:"max_correlation" yaml:"max_correlation"`

	// PositionSize is the baseline fraction committed per trade;
	// MaxPositionSize is the hard cap any resize is clamped to.
	PositionSize    float64 `json:"position_size" yaml:"position_size"`
	MaxPositionSize float64 `json:"max_position_size" yaml:"max_position_size"`
	RiskPerTrade    float64 `json:"risk_per_trade" yaml:"risk_per_trade"`

	StopLoss     float64 `json:"stop_loss" yaml:"stop_loss"`
	TakeProfit   float64 `json:"take_profit" yaml:"take_profit"`
	TrailingStop float64 `json:"trailing_stop" yaml:"trailing_stop"`

	// ConfidenceScaling shrinks the approved fraction by the candidate's
	// aggregate confidence during sizing.
	ConfidenceScaling bool `json:"confidence_scaling" yaml:"confidence_scaling"`
}

// Validate rejects limit sets the engine cannot safely run with.
// A bad limit is a fatal ConfigurationError at session start.
func (l Limits) Validate() error {
	check := func(name string, v float64) error {
		if v < 0 || v > 1 {
			return fmt.Errorf("risk: %s must be in [0,1], got %v", name, v)
		}
		return nil
	}
	for name, v := range map[string]float64{
		"max_drawdown":      l.MaxDrawdown,
		"max_daily_loss":    l.MaxDailyLoss,
		"max_correlation":   l.MaxCorrelation,
		"position_size":     l.PositionSize,
		"max_position_size": l.MaxPositionSize,
		"risk_per_trade":    l.RiskPerTrade,
		"stop_loss":         l.StopLoss,
		"take_profit":       l.TakeProfit,
		"trailing_stop":     l.TrailingStop,
	} {
		if err := check(name, v); err != nil {
			return err
		}
	}
	if l.MaxOpenPositions <= 0 {
		return fmt.Errorf("risk: max_open_positions must be positive, got %d", l.MaxOpenPositions)
	}
	if l.PositionSize == 0 {
		return fmt.Errorf("risk: position_size is required")
	}
	if l.MaxPositionSize == 0 {
		return fmt.Errorf("risk: max_position_size is required")
	}
	if l.StopLoss == 0 {
		return fmt.Errorf("risk: stop_loss is required")
	}
	return nil
}
