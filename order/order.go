// Package order tracks every order from submission to its terminal state
// and is the only component that mutates the ledger on fills.
package order

import (
	"time"

	"github.com/rustyeddy/quantcore/ledger"
	"github.com/rustyeddy/quantcore/signal"
)

// Side is the venue-facing order side.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "sell"
	}
	return "buy"
}

// Sign returns +1 for buys and -1 for sells.
func (s Side) Sign() float64 {
	if s == Sell {
		return -1
	}
	return 1
}

// Type is the order pricing type. Only market orders are dispatched in v1;
// the field exists so venue rejections of unsupported types carry context.
type Type int

const (
	Market Type = iota
	Limit
)

// State is the order lifecycle state.
//
//	PENDING → SUBMITTED → {PARTIALLY_FILLED ⇄ SUBMITTED} → FILLED | CANCELLED | REJECTED
type State int

const (
	Pending State = iota
	Submitted
	PartiallyFilled
	Filled
	Cancelled
	Rejected
)

func (s State) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Submitted:
		return "SUBMITTED"
	case PartiallyFilled:
		return "PARTIALLY_FILLED"
	case Filled:
		return "FILLED"
	case Cancelled:
		return "CANCELLED"
	default:
		return "REJECTED"
	}
}

// Terminal reports whether the state accepts no further transitions
// (late fills after a cancel are the one documented exception).
func (s State) Terminal() bool {
	switch s {
	case Filled, Cancelled, Rejected:
		return true
	}
	return false
}

// Rejection reason codes owned by the state machine.
const (
	ReasonSubmitTimeout = "submission_timeout"
	ReasonHaltRace      = "risk_halt_race"
	ReasonSuperseded    = "signal_superseded"
)

// Intent is a sized, risk-approved instruction to trade. It is consumed by
// the state machine and discarded once the resulting order is terminal.
// Closing intents come from the exit monitor and bypass the risk engine's
// position-count and correlation checks.
type Intent struct {
	Symbol      string
	Direction   signal.Direction
	Quantity    float64 // always positive; Direction carries the sign
	MaxSlippage float64
	Signal      signal.Signal // originating signal, zero for closing intents
	Stops       ledger.Stops
	Closing     bool
	Created     time.Time
}

// Side maps the intent direction to an order side.
func (i Intent) Side() Side {
	if i.Direction == signal.Short {
		return Sell
	}
	return Buy
}

// Order is the state machine's record of one dispatched intent. Terminal
// orders are retained for audit and never mutated again, except that a late
// fill arriving after a cancel request must still be recorded.
type Order struct {
	ID             string
	Symbol         string
	Side           Side
	Quantity       float64
	Type           Type
	State          State
	CreatedAt      time.Time
	FilledQuantity float64
	AvgFillPrice   float64
	Reason         string
	Closing        bool
	MaxSlippage    float64
	Stops          ledger.Stops
}

// Remaining is the unfilled quantity.
func (o *Order) Remaining() float64 {
	return o.Quantity - o.FilledQuantity
}

// Fill is a (possibly partial) execution report from the connector.
type Fill struct {
	OrderID  string
	Quantity float64 // positive
	Price    float64
	Time     time.Time
}
