// Package sizing converts approved risk decisions into concrete order
// quantities, rounded to what the venue will actually accept.
package sizing

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/quantcore/ledger"
	"github.com/rustyeddy/quantcore/order"
	"github.com/rustyeddy/quantcore/risk"
	"github.com/rustyeddy/quantcore/signal"
)

// ErrBelowMinLot means the computed quantity rounded down to zero. The
// intent is dropped and journaled; it is not a session error. The reason
// code is stable for journal records.
var ErrBelowMinLot = errors.New("below_min_lot")

const ReasonBelowMinLot = "below_min_lot"

// LotStepper supplies the venue's minimum tradable quantity increment per
// symbol. The step comes from the exchange connector, never from config.
type LotStepper interface {
	LotStep(symbol string) float64
}

// FixedStep is a LotStepper with one step for every symbol.
type FixedStep float64

func (s FixedStep) LotStep(string) float64 { return float64(s) }

// Sizer turns decisions into intents using the session risk limits for
// protective stops and the venue lot step for rounding.
type Sizer struct {
	limits      risk.Limits
	steps       LotStepper
	maxSlippage float64
}

func New(limits risk.Limits, steps LotStepper, maxSlippage float64) *Sizer {
	if steps == nil {
		steps = FixedStep(0)
	}
	return &Sizer{limits: limits, steps: steps, maxSlippage: maxSlippage}
}

// Size builds the order intent for an approved or resized decision.
// quantity = equity × fraction / reference price, floored to the lot step.
// Stops attach relative to the reference price: stop below entry for longs,
// mirrored for shorts, take-profit symmetric, trailing distance from the
// risk configuration.
func (s *Sizer) Size(d risk.Decision, c signal.RankedCandidate, equity, refPrice float64, now time.Time) (order.Intent, error) {
	if d.Action == risk.Reject {
		return order.Intent{}, fmt.Errorf("sizing: cannot size a rejected candidate (%s)", d.Reason)
	}
	if refPrice <= 0 {
		return order.Intent{}, fmt.Errorf("sizing: non-positive reference price %v for %s", refPrice, c.Symbol)
	}

	fraction := d.Fraction
	if s.limits.ConfidenceScaling {
		fraction *= c.Confidence
	}

	qty := equity * fraction / refPrice
	if step := s.steps.LotStep(c.Symbol); step > 0 {
		qty = math.Floor(qty/step) * step
	}
	if qty <= 0 {
		return order.Intent{}, ErrBelowMinLot
	}

	return order.Intent{
		Symbol:      c.Symbol,
		Direction:   c.Direction,
		Quantity:    qty,
		MaxSlippage: s.maxSlippage,
		Stops:       s.stops(c.Direction, refPrice),
		Created:     now,
	}, nil
}

func (s *Sizer) stops(dir signal.Direction, ref float64) ledger.Stops {
	st := ledger.Stops{TrailingDistance: ref * s.limits.TrailingStop}

	sign := 1.0
	if dir == signal.Short {
		sign = -1
	}
	if s.limits.StopLoss > 0 {
		st.StopLoss = ref * (1 - sign*s.limits.StopLoss)
	}
	if s.limits.TakeProfit > 0 {
		st.TakeProfit = ref * (1 + sign*s.limits.TakeProfit)
	}
	return st
}
