// Package journal persists the session audit trail: every order state
// change, every fill, every equity snapshot, and every rejected candidate.
// Terminal orders live here for reporting; the core never reads them back
// into decisions.
package journal

import "time"

// OrderRecord is one order state observation. The same order id appears
// once per state change; the latest row is the current state.
type OrderRecord struct {
	OrderID        string
	Symbol         string
	Side           string
	Quantity       float64
	FilledQuantity float64
	AvgFillPrice   float64
	State          string
	Reason         string
	CreatedAt      time.Time
}

// FillRecord is one confirmed execution. Quantity is signed.
type FillRecord struct {
	OrderID  string
	Symbol   string
	Quantity float64
	Price    float64
	Time     time.Time
}

// EquitySnapshot is the ledger state after a fill or at a monitoring tick.
type EquitySnapshot struct {
	Time        time.Time
	Cash        float64
	Equity      float64
	PeakEquity  float64
	DailyLoss   float64
	DrawdownPct float64
	Open        int
}

// RejectionRecord is a candidate or intent the pipeline dropped, with the
// coded reason ("max_positions", "below_min_lot", ...).
type RejectionRecord struct {
	Symbol string
	Reason string
	Time   time.Time
}

type Journal interface {
	RecordOrder(OrderRecord) error
	RecordFill(FillRecord) error
	RecordEquity(EquitySnapshot) error
	RecordRejection(RejectionRecord) error
	Close() error
}

// Nop discards everything. Useful for tests and dry runs.
type Nop struct{}

func (Nop) RecordOrder(OrderRecord) error         { return nil }
func (Nop) RecordFill(FillRecord) error           { return nil }
func (Nop) RecordEquity(EquitySnapshot) error     { return nil }
func (Nop) RecordRejection(RejectionRecord) error { return nil }
func (Nop) Close() error                          { return nil }
