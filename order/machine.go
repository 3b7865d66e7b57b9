package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/rustyeddy/quantcore/internal/id"
	"github.com/rustyeddy/quantcore/journal"
	"github.com/rustyeddy/quantcore/ledger"
	"github.com/rustyeddy/quantcore/signal"
)

var (
	ErrUnknownOrder = errors.New("order not found")
	ErrInvalidFill  = errors.New("invalid fill quantity")
	ErrTerminal     = errors.New("order already terminal")
)

// Connector executes accepted orders against a venue. Submit returning an
// error is a venue rejection; retry and backoff live inside the connector.
// Fills come back asynchronously through Machine.OnFill.
type Connector interface {
	Submit(ctx context.Context, o Order) error
	Cancel(ctx context.Context, orderID string) error
}

// Machine owns the order lifecycle. All fill handling is serialized through
// its mutex so ledger mutations happen one at a time and are visible before
// the next evaluate cycle reads the ledger.
type Machine struct {
	mu           sync.Mutex
	led          *ledger.Ledger
	conn         Connector
	jnl          journal.Journal
	orders       map[string]*Order
	pendingClose map[string]bool
	timeout      time.Duration
}

// NewMachine wires the state machine to the session ledger, a connector and
// a journal. timeout bounds how long an order may sit in PENDING before it
// is rejected; zero disables the sweep.
func NewMachine(led *ledger.Ledger, conn Connector, jnl journal.Journal, timeout time.Duration) *Machine {
	if jnl == nil {
		jnl = journal.Nop{}
	}
	return &Machine{
		led:          led,
		conn:         conn,
		jnl:          jnl,
		orders:       make(map[string]*Order),
		pendingClose: make(map[string]bool),
		timeout:      timeout,
	}
}

// SubmitIntent creates an order for the intent and dispatches it. A halt
// that lands between risk evaluation and dispatch rejects the order unless
// the intent is closing: closing risk is never blocked. Connector errors
// reject the order and the session continues.
//
// Creation and dispatch happen under one lock, so with a connector whose
// Submit acks synchronously (paper does) the order passes through PENDING
// without ever being observable there. SweepTimeouts and CancelSuperseded
// cover connectors that ack asynchronously and can strand an order in
// PENDING.
func (m *Machine) SubmitIntent(ctx context.Context, intent Intent) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	created := intent.Created
	if created.IsZero() {
		created = time.Now().UTC()
	}

	o := &Order{
		ID:          id.New(),
		Symbol:      intent.Symbol,
		Side:        intent.Side(),
		Quantity:    intent.Quantity,
		Type:        Market,
		State:       Pending,
		CreatedAt:   created,
		Closing:     intent.Closing,
		MaxSlippage: intent.MaxSlippage,
		Stops:       intent.Stops,
	}
	m.orders[o.ID] = o

	if !intent.Closing && m.led.Mode() == ledger.Halted {
		o.State = Rejected
		o.Reason = ReasonHaltRace
		m.rejectLocked(o)
		return *o, nil
	}

	if err := m.conn.Submit(ctx, *o); err != nil {
		o.State = Rejected
		o.Reason = err.Error()
		m.rejectLocked(o)
		return *o, nil
	}

	o.State = Submitted
	if intent.Closing {
		m.pendingClose[o.Symbol] = true
	}
	m.record(o)
	return *o, nil
}

// OnFill applies one execution report. Fills arriving concurrently from the
// connector queue behind the mutex and apply serially. The position and the
// ledger cash/equity update atomically with the order state, and a failed
// reconciliation is returned as-is: the caller must halt the session.
//
// A late fill on a cancelled order is still applied: the venue executed,
// so the ledger must reflect it (no silent drops).
func (m *Machine) OnFill(f Fill) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[f.OrderID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOrder, f.OrderID)
	}
	if o.State == Rejected {
		return fmt.Errorf("%w: fill for rejected order %s", ErrInvalidFill, f.OrderID)
	}
	if f.Quantity <= 0 || f.Quantity > o.Remaining()+fillEps {
		return fmt.Errorf("%w: %v of %v remaining", ErrInvalidFill, f.Quantity, o.Remaining())
	}

	signed := o.Side.Sign() * f.Quantity
	if err := m.led.ApplyFill(o.Symbol, signed, f.Price, f.Time, o.Stops); err != nil {
		return err
	}

	total := o.FilledQuantity + f.Quantity
	o.AvgFillPrice = (o.AvgFillPrice*o.FilledQuantity + f.Price*f.Quantity) / total
	o.FilledQuantity = total

	switch {
	case o.Remaining() <= fillEps:
		o.State = Filled
	case o.State == Cancelled:
		// Late partial after cancel: keep the cancel, book the fill.
	default:
		o.State = PartiallyFilled
	}

	if o.Closing && o.State.Terminal() {
		delete(m.pendingClose, o.Symbol)
	}

	// The fill is already in the ledger; a journal write failure must not
	// undo it. Log and carry on.
	if err := m.jnl.RecordFill(journal.FillRecord{
		OrderID:  o.ID,
		Symbol:   o.Symbol,
		Quantity: signed,
		Price:    f.Price,
		Time:     f.Time,
	}); err != nil {
		log.Printf("order: journal fill for %s: %v", o.ID, err)
	}
	m.record(o)

	snap := m.led.Snapshot(f.Time)
	if err := m.jnl.RecordEquity(journal.EquitySnapshot{
		Time:        snap.Time,
		Cash:        snap.Cash,
		Equity:      snap.Equity,
		PeakEquity:  snap.PeakEquity,
		DailyLoss:   snap.DailyLoss,
		DrawdownPct: snap.DrawdownPct,
		Open:        len(snap.Positions),
	}); err != nil {
		log.Printf("order: journal equity snapshot: %v", err)
	}
	return nil
}

const fillEps = 1e-9

// Cancel withdraws the unfilled remainder. Before dispatch the cancel is
// immediate; after, it is best-effort and must reconcile with whatever the
// connector later reports.
func (m *Machine) Cancel(ctx context.Context, orderID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOrder, orderID)
	}
	if o.State.Terminal() {
		return fmt.Errorf("%w: %s is %s", ErrTerminal, orderID, o.State)
	}

	if o.State != Pending {
		// Already at the venue; ask, but do not wait. A late fill will
		// still be applied by OnFill.
		_ = m.conn.Cancel(ctx, orderID)
	}

	o.State = Cancelled
	o.Reason = reason
	if o.Closing {
		delete(m.pendingClose, o.Symbol)
	}
	m.record(o)
	return nil
}

// CancelSuperseded cancels still-pending orders for the signal's symbol that
// originate from an older signal. Once an order is SUBMITTED it is left to
// run; cancellation past dispatch is the caller's explicit choice.
func (m *Machine) CancelSuperseded(s signal.Signal) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range m.orders {
		if o.Symbol != s.Symbol || o.State != Pending || o.Closing {
			continue
		}
		o.State = Cancelled
		o.Reason = ReasonSuperseded
		m.record(o)
	}
}

// SweepTimeouts rejects orders stuck in PENDING beyond the configured
// horizon.
func (m *Machine) SweepTimeouts(now time.Time) {
	if m.timeout <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range m.orders {
		if o.State == Pending && now.Sub(o.CreatedAt) > m.timeout {
			o.State = Rejected
			o.Reason = ReasonSubmitTimeout
			m.rejectLocked(o)
		}
	}
}

// Order returns a copy of the order for audit and tests.
func (m *Machine) Order(orderID string) (Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return Order{}, false
	}
	return *o, true
}

// OpenCount returns the number of non-terminal orders.
func (m *Machine) OpenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, o := range m.orders {
		if !o.State.Terminal() {
			n++
		}
	}
	return n
}

// rejectLocked records a rejection and releases the symbol's closing slot,
// so a failed close attempt can be retried on the next exit check.
func (m *Machine) rejectLocked(o *Order) {
	if o.Closing {
		delete(m.pendingClose, o.Symbol)
	}
	m.record(o)
}

func (m *Machine) record(o *Order) {
	err := m.jnl.RecordOrder(journal.OrderRecord{
		OrderID:        o.ID,
		Symbol:         o.Symbol,
		Side:           o.Side.String(),
		Quantity:       o.Quantity,
		FilledQuantity: o.FilledQuantity,
		AvgFillPrice:   o.AvgFillPrice,
		State:          o.State.String(),
		Reason:         o.Reason,
		CreatedAt:      o.CreatedAt,
	})
	if err != nil {
		log.Printf("order: journal order %s (%s): %v", o.ID, o.State, err)
	}
}
