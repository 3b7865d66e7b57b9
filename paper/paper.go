// Package paper is the in-process exchange connector for paper trading.
// Submitted orders fill at the next observed bar's open, adjusted by a
// seeded slippage model, so a session with a fixed seed reproduces its
// fills exactly.
package paper

import (
	"context"
	"math/rand"
	"sort"
	"sync"

	"github.com/rustyeddy/quantcore/market"
	"github.com/rustyeddy/quantcore/order"
)

// FillSink receives execution reports. *order.Machine satisfies it.
type FillSink interface {
	OnFill(order.Fill) error
}

// Connector simulates a venue. It implements order.Connector for dispatch
// and sizing.LotStepper for the venue's minimum quantity increment.
type Connector struct {
	mu          sync.Mutex
	rng         *rand.Rand
	sink        FillSink
	pending     map[string]order.Order // by order id, awaiting the next bar
	last        map[string]float64     // most recent close per symbol
	lotStep     float64
	maxSlippage float64 // default when the order carries none
}

// New creates a paper connector. seed fixes the slippage stream; lotStep is
// the venue quantity increment reported to the sizer; maxSlippage bounds
// the simulated adverse fill deviation for orders that do not carry their
// own bound.
func New(seed int64, lotStep, maxSlippage float64, sink FillSink) *Connector {
	return &Connector{
		rng:         rand.New(rand.NewSource(seed)),
		sink:        sink,
		pending:     make(map[string]order.Order),
		last:        make(map[string]float64),
		lotStep:     lotStep,
		maxSlippage: maxSlippage,
	}
}

// SetSink wires the execution-report receiver. The connector and the
// machine reference each other, so one side is attached after construction.
func (c *Connector) SetSink(s FillSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sink = s
}

// LotStep reports the venue quantity increment.
func (c *Connector) LotStep(string) float64 { return c.lotStep }

// LastPrice reports the most recent close observed for the symbol.
func (c *Connector) LastPrice(symbol string) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.last[symbol]
	if !ok {
		return 0, market.ErrNoPrice
	}
	return p, nil
}

// Submit accepts the order for execution at the next bar. Paper never
// rejects at the venue edge; rejections are exercised through the risk and
// state-machine paths.
func (c *Connector) Submit(_ context.Context, o order.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[o.ID] = o
	return nil
}

// Cancel withdraws a not-yet-filled order. Best effort: once OnBar has
// dispatched the fill there is nothing left to cancel.
func (c *Connector) Cancel(_ context.Context, orderID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, orderID)
	return nil
}

// OnBar fills every pending order for the bar's symbol at the bar open plus
// adverse slippage, and reports the fills to the sink one at a time.
func (c *Connector) OnBar(bar market.Bar) error {
	c.mu.Lock()
	c.last[bar.Symbol] = bar.Close
	var due []order.Order
	for id, o := range c.pending {
		if o.Symbol == bar.Symbol {
			due = append(due, o)
			delete(c.pending, id)
		}
	}
	// IDs are time-ordered ULIDs; sorting pins the slippage stream to
	// submission order so a fixed seed reproduces fills exactly.
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	fills := make([]order.Fill, 0, len(due))
	for _, o := range due {
		fills = append(fills, order.Fill{
			OrderID:  o.ID,
			Quantity: o.Remaining(),
			Price:    c.fillPrice(o, bar.Open),
			Time:     bar.Time,
		})
	}
	c.mu.Unlock()

	// Deliver outside the lock; the sink serializes on its own mutex.
	for _, f := range fills {
		if err := c.sink.OnFill(f); err != nil {
			return err
		}
	}
	return nil
}

// PendingCount reports orders still awaiting a bar.
func (c *Connector) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// fillPrice applies adverse slippage: buys fill above the open, sells
// below, by a uniform fraction of the order's slippage bound.
func (c *Connector) fillPrice(o order.Order, open float64) float64 {
	bound := o.MaxSlippage
	if bound <= 0 {
		bound = c.maxSlippage
	}
	if bound <= 0 {
		return open
	}
	slip := c.rng.Float64() * bound
	return open * (1 + o.Side.Sign()*slip)
}
