package ledger

import "time"

// Stops holds the protective exit levels attached to a position.
// TrailingDistance is an absolute price distance; zero disables trailing.
type Stops struct {
	StopLoss         float64
	TakeProfit       float64
	TrailingDistance float64
}

// Position is the ledger's record of open exposure in one symbol.
// Quantity is signed: positive long, negative short. Positions are created
// on the first fill from flat and destroyed when quantity returns to zero.
// The ledger owns them exclusively; callers only ever see copies.
type Position struct {
	Symbol           string
	Quantity         float64
	EntryPrice       float64
	CurrentPrice     float64
	StopLoss         float64
	TakeProfit       float64
	TrailingDistance float64
	OpenedAt         time.Time
}

// Notional is the position's current market value (signed).
func (p *Position) Notional() float64 {
	return p.Quantity * p.CurrentPrice
}

// advanceTrailing ratchets the stop toward a favorable price move. The stop
// only ever tightens; an adverse move leaves it where it is.
func (p *Position) advanceTrailing(price float64) {
	if p.TrailingDistance <= 0 {
		return
	}
	if p.Quantity > 0 {
		if s := price - p.TrailingDistance; s > p.StopLoss {
			p.StopLoss = s
		}
		return
	}
	if s := price + p.TrailingDistance; p.StopLoss == 0 || s < p.StopLoss {
		p.StopLoss = s
	}
}

// stopHit reports whether the protective stop is breached at price.
func (p *Position) stopHit(price float64) bool {
	if p.StopLoss <= 0 {
		return false
	}
	if p.Quantity > 0 {
		return price <= p.StopLoss
	}
	return price >= p.StopLoss
}

// takeHit reports whether the take-profit level is reached at price.
func (p *Position) takeHit(price float64) bool {
	if p.TakeProfit <= 0 {
		return false
	}
	if p.Quantity > 0 {
		return price >= p.TakeProfit
	}
	return price <= p.TakeProfit
}
