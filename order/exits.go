package order

import (
	"sort"
	"time"

	"github.com/rustyeddy/quantcore/signal"
)

// CheckExits marks every open position against the latest prices and
// synthesizes a closing intent for each stop-loss, take-profit or trailing
// breach. Closing intents bypass the risk engine's position-count and
// correlation checks but still pass through the state machine like any
// other order. At most one closing intent per symbol is in flight at a
// time.
func (m *Machine) CheckExits(prices map[string]float64, now time.Time) []Intent {
	symbols := make([]string, 0, len(prices))
	for s := range prices {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	var intents []Intent
	for _, sym := range symbols {
		reason := m.led.Mark(sym, prices[sym])
		if reason == "" {
			continue
		}

		m.mu.Lock()
		if m.pendingClose[sym] {
			m.mu.Unlock()
			continue
		}
		pos, ok := m.led.Position(sym)
		if !ok {
			m.mu.Unlock()
			continue
		}
		m.pendingClose[sym] = true
		m.mu.Unlock()

		dir := signal.Short
		qty := pos.Quantity
		if qty < 0 {
			dir = signal.Long
			qty = -qty
		}
		intents = append(intents, Intent{
			Symbol:    sym,
			Direction: dir,
			Quantity:  qty,
			Closing:   true,
			Created:   now,
		})
	}
	return intents
}
