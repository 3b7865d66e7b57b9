package ledger

import (
	"sort"
	"time"
)

// Snapshot is a read-only copy of the ledger for monitoring and the
// dashboard feed. Mutating a snapshot has no effect on the ledger.
type Snapshot struct {
	Time          time.Time  `json:"time"`
	Cash          float64    `json:"cash"`
	Equity        float64    `json:"equity"`
	PeakEquity    float64    `json:"peak_equity"`
	RealizedToday float64    `json:"realized_today"`
	DailyLoss     float64    `json:"daily_loss"`
	DrawdownPct   float64    `json:"drawdown_pct"`
	Mode          string     `json:"mode"`
	Positions     []Position `json:"positions"`
}

// Snapshot captures the current ledger state.
func (l *Ledger) Snapshot(at time.Time) Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	positions := make([]Position, 0, len(l.positions))
	for _, p := range l.positions {
		positions = append(positions, *p)
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Symbol < positions[j].Symbol
	})

	return Snapshot{
		Time:          at,
		Cash:          l.cash,
		Equity:        l.equity,
		PeakEquity:    l.peak,
		RealizedToday: l.realizedToday,
		DailyLoss:     l.dailyLoss,
		DrawdownPct:   l.drawdownLocked(),
		Mode:          l.mode.String(),
		Positions:     positions,
	}
}
