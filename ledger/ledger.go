// Package ledger holds the portfolio risk ledger: equity, cash, open
// positions and the session drawdown state. One Ledger exists per trading
// session and it is the only shared mutable resource in the pipeline, so
// every mutation goes through its mutex and only the fill path and session
// initialization write to it.
package ledger

import (
	"errors"
	"math"
	"sort"
	"sync"
	"time"
)

// ErrInconsistent means the reconciliation invariant
// sum(position notional) + cash == equity failed after a fill. This is
// fatal: the ledger halts itself and the session must not continue.
var ErrInconsistent = errors.New("ledger reconciliation failed")

// Mode gates whether new order intents may be approved.
type Mode int

const (
	Active Mode = iota
	Halted
)

func (m Mode) String() string {
	if m == Halted {
		return "HALTED"
	}
	return "ACTIVE"
}

const (
	qtyEps   = 1e-9
	reconTol = 1e-6
)

// Ledger is the process-wide portfolio state for one session.
type Ledger struct {
	mu            sync.Mutex
	cash          float64
	equity        float64
	peak          float64
	realizedToday float64
	dailyLoss     float64
	positions     map[string]*Position
	mode          Mode
	maxDrawdown   float64
}

// New creates a ledger funded with the paper starting balance. maxDrawdown
// is the fraction of peak equity that, once lost, halts the session.
func New(startingCash, maxDrawdown float64) *Ledger {
	return &Ledger{
		cash:        startingCash,
		equity:      startingCash,
		peak:        startingCash,
		positions:   make(map[string]*Position),
		maxDrawdown: maxDrawdown,
	}
}

// ApplyFill applies one confirmed fill: quantity is signed (buy positive,
// sell negative). It updates or creates the position, moves cash, tracks
// realized P/L for the day and reconciles the equity invariant before
// returning. Stops are only used when the fill opens a fresh position.
//
// Fills are applied one at a time; callers that receive concurrent connector
// callbacks serialize through here.
func (l *Ledger) ApplyFill(symbol string, qty, price float64, at time.Time, stops Stops) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if qty == 0 || price <= 0 {
		return errors.New("fill must have non-zero quantity and positive price")
	}

	p := l.positions[symbol]
	if p != nil {
		// Mark existing exposure to the fill price first so the fill
		// itself is equity-neutral.
		l.equity += p.Quantity * (price - p.CurrentPrice)
		p.CurrentPrice = price
	}

	l.cash -= qty * price

	switch {
	case p == nil:
		p = &Position{
			Symbol:           symbol,
			Quantity:         qty,
			EntryPrice:       price,
			CurrentPrice:     price,
			StopLoss:         stops.StopLoss,
			TakeProfit:       stops.TakeProfit,
			TrailingDistance: stops.TrailingDistance,
			OpenedAt:         at,
		}
		l.positions[symbol] = p

	case sameSign(p.Quantity, qty):
		// Scaling in: weighted average entry.
		total := p.Quantity + qty
		p.EntryPrice = (p.EntryPrice*p.Quantity + price*qty) / total
		p.Quantity = total

	default:
		// Reducing, closing, or flipping.
		closed := math.Min(math.Abs(qty), math.Abs(p.Quantity))
		var pnl float64
		if p.Quantity > 0 {
			pnl = closed * (price - p.EntryPrice)
		} else {
			pnl = closed * (p.EntryPrice - price)
		}
		l.realizedToday += pnl
		if pnl < 0 {
			l.dailyLoss += -pnl
		}

		p.Quantity += qty
		if math.Abs(p.Quantity) < qtyEps {
			delete(l.positions, symbol)
		} else if !sameSign(p.Quantity, p.Quantity-qty) {
			// Flipped through zero: remainder is a new position at the
			// fill price.
			p.EntryPrice = price
			p.OpenedAt = at
			p.StopLoss = stops.StopLoss
			p.TakeProfit = stops.TakeProfit
			p.TrailingDistance = stops.TrailingDistance
		}
	}

	l.updatePeakLocked()

	if err := l.reconcileLocked(); err != nil {
		l.mode = Halted
		return err
	}
	return nil
}

// Mark updates the symbol's current price, advances any trailing stop and
// returns a non-empty breach reason ("StopLoss" or "TakeProfit") when the
// move crossed a protective level. Marking a symbol with no position is a
// no-op.
func (l *Ledger) Mark(symbol string, price float64) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.positions[symbol]
	if !ok {
		return ""
	}

	l.equity += p.Quantity * (price - p.CurrentPrice)
	p.CurrentPrice = price
	p.advanceTrailing(price)
	l.updatePeakLocked()

	switch {
	case p.stopHit(price):
		return "StopLoss"
	case p.takeHit(price):
		return "TakeProfit"
	}
	return ""
}

func (l *Ledger) updatePeakLocked() {
	if l.equity > l.peak {
		l.peak = l.equity
	}
	if l.maxDrawdown > 0 && l.drawdownLocked() > l.maxDrawdown {
		l.mode = Halted
	}
}

func (l *Ledger) drawdownLocked() float64 {
	if l.peak <= 0 {
		return 0
	}
	return 1 - l.equity/l.peak
}

func (l *Ledger) reconcileLocked() error {
	sum := l.cash
	for _, p := range l.positions {
		sum += p.Notional()
	}
	tol := reconTol * math.Max(1, math.Abs(l.equity))
	if math.Abs(sum-l.equity) > tol {
		return ErrInconsistent
	}
	return nil
}

// Reconcile re-checks the equity invariant on demand, halting the ledger on
// failure.
func (l *Ledger) Reconcile() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.reconcileLocked(); err != nil {
		l.mode = Halted
		return err
	}
	return nil
}

// Halt forces the ledger into HALTED mode.
func (l *Ledger) Halt() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mode = Halted
}

// Resume clears a halt. This is a manual operation; the session never calls
// it on its own.
func (l *Ledger) Resume() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mode = Active
}

// ResetDaily clears the daily realized P/L counters at a session day roll.
func (l *Ledger) ResetDaily() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.realizedToday = 0
	l.dailyLoss = 0
}

func (l *Ledger) Mode() Mode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mode
}

func (l *Ledger) Equity() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.equity
}

func (l *Ledger) Cash() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash
}

func (l *Ledger) PeakEquity() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.peak
}

func (l *Ledger) DailyLoss() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dailyLoss
}

// Drawdown returns the fractional decline from the session equity peak.
func (l *Ledger) Drawdown() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.drawdownLocked()
}

func (l *Ledger) OpenCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.positions)
}

func (l *Ledger) HasPosition(symbol string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.positions[symbol]
	return ok
}

// Position returns a copy of the open position for symbol, if any.
func (l *Ledger) Position(symbol string) (Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

// Positions returns copies of every open position, sorted by symbol.
func (l *Ledger) Positions() []Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// OpenDirections maps each open symbol to its position direction sign
// (+1 long, -1 short), for the aggregator's pyramiding filter.
func (l *Ledger) OpenDirections() map[string]int8 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int8, len(l.positions))
	for s, p := range l.positions {
		if p.Quantity > 0 {
			out[s] = 1
		} else {
			out[s] = -1
		}
	}
	return out
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}
