// Package monitor derives threshold breaches from ledger snapshots and
// pushes alerts and snapshots to dashboard clients. Checks are pure; alert
// delivery and deduplication belong to the consumer.
package monitor

import (
	"math"

	"github.com/rustyeddy/quantcore/ledger"
)

// Thresholds are the alerting levels, distinct from the hard risk limits:
// monitoring fires before or as the limits bite, it never blocks anything.
type Thresholds struct {
	Drawdown     float64 `json:"drawdown" yaml:"drawdown"`
	DailyLoss    float64 `json:"daily_loss" yaml:"daily_loss"`
	PositionSize float64 `json:"position_size" yaml:"position_size"`
}

// Alert severities.
const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert kinds.
const (
	KindDrawdown     = "drawdown"
	KindDailyLoss    = "daily_loss"
	KindPositionSize = "position_size"
	KindHalted       = "halted"
	KindLedgerFault  = "ledger_inconsistent"
)

// Alert is one breached threshold observation.
type Alert struct {
	Kind      string  `json:"kind"`
	Severity  string  `json:"severity"`
	Symbol    string  `json:"symbol,omitempty"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
}

// Check evaluates a ledger snapshot against the thresholds and returns one
// alert per breach, in a fixed order. It never mutates anything, and two
// calls over the same unmutated snapshot return identical sequences.
func Check(s ledger.Snapshot, t Thresholds) []Alert {
	var alerts []Alert

	if t.Drawdown > 0 && s.DrawdownPct >= t.Drawdown {
		alerts = append(alerts, Alert{
			Kind:      KindDrawdown,
			Severity:  SeverityCritical,
			Value:     s.DrawdownPct,
			Threshold: t.Drawdown,
		})
	}

	if t.DailyLoss > 0 && s.PeakEquity > 0 {
		frac := s.DailyLoss / s.PeakEquity
		if frac >= t.DailyLoss {
			alerts = append(alerts, Alert{
				Kind:      KindDailyLoss,
				Severity:  SeverityWarning,
				Value:     frac,
				Threshold: t.DailyLoss,
			})
		}
	}

	if t.PositionSize > 0 && s.Equity > 0 {
		for _, p := range s.Positions {
			frac := math.Abs(p.Notional()) / s.Equity
			if frac >= t.PositionSize {
				alerts = append(alerts, Alert{
					Kind:      KindPositionSize,
					Severity:  SeverityWarning,
					Symbol:    p.Symbol,
					Value:     frac,
					Threshold: t.PositionSize,
				})
			}
		}
	}

	if s.Mode == ledger.Halted.String() {
		alerts = append(alerts, Alert{
			Kind:     KindHalted,
			Severity: SeverityCritical,
			Value:    s.DrawdownPct,
		})
	}

	return alerts
}
