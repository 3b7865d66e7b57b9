// Package engine runs the decision cycle: market data in, risk-checked
// orders out. One cycle runs per bar-close and the pipeline inside a cycle
// is strictly sequential, so no two risk evaluations ever race against the
// same ledger.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/rustyeddy/quantcore/config"
	"github.com/rustyeddy/quantcore/journal"
	"github.com/rustyeddy/quantcore/ledger"
	"github.com/rustyeddy/quantcore/market"
	"github.com/rustyeddy/quantcore/monitor"
	"github.com/rustyeddy/quantcore/order"
	"github.com/rustyeddy/quantcore/paper"
	"github.com/rustyeddy/quantcore/risk"
	"github.com/rustyeddy/quantcore/signal"
	"github.com/rustyeddy/quantcore/sizing"
	"github.com/rustyeddy/quantcore/strategies"
)

// Session wires the pipeline for one trading session. Construct with New,
// drive with Run.
type Session struct {
	cfg        *config.Config
	led        *ledger.Ledger
	riskEngine *risk.Engine
	sizer      *sizing.Sizer
	machine    *order.Machine
	venue      *paper.Connector
	strats     []signal.Strategy
	jnl        journal.Journal
	hub        *monitor.Hub

	interval  time.Duration
	lastCheck time.Time
}

// New builds a paper session from the validated config. corr is the
// external correlation lookup; nil skips the correlation check. hub is the
// optional dashboard feed.
//
// Live mode needs a real exchange connector and is constructed elsewhere;
// asking for it here is a configuration error.
func New(cfg *config.Config, corr risk.CorrelationFn, hub *monitor.Hub) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Mode != "paper" {
		return nil, fmt.Errorf("engine: %q mode requires an exchange connector; only paper sessions are built-in", cfg.Mode)
	}

	jnl, err := openJournal(cfg.Journal)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	timeout, err := cfg.Trading.ParsePendingTimeout()
	if err != nil {
		return nil, err
	}
	interval, err := cfg.Monitoring.ParseInterval()
	if err != nil {
		return nil, err
	}

	led := ledger.New(cfg.Account.Balance, cfg.Risk.MaxDrawdown)

	venue := paper.New(cfg.Trading.SlippageSeed, cfg.Trading.LotStep, cfg.Trading.MaxSlippage, nil)
	machine := order.NewMachine(led, venue, jnl, timeout)
	venue.SetSink(machine)

	strats, err := strategies.ResolveAll(cfg.Strategies.Enabled, cfg.Trading.Symbols, strategies.Options{
		FastPeriod: cfg.Strategies.FastPeriod,
		SlowPeriod: cfg.Strategies.SlowPeriod,
	})
	if err != nil {
		jnl.Close()
		return nil, err
	}

	return &Session{
		cfg:        cfg,
		led:        led,
		riskEngine: risk.NewEngine(cfg.Risk, corr),
		sizer:      sizing.New(cfg.Risk, venue, cfg.Trading.MaxSlippage),
		machine:    machine,
		venue:      venue,
		strats:     strats,
		jnl:        jnl,
		hub:        hub,
		interval:   interval,
	}, nil
}

// Ledger exposes the session ledger for inspection and manual resume.
func (s *Session) Ledger() *ledger.Ledger { return s.led }

// Machine exposes the order state machine for audit queries.
func (s *Session) Machine() *order.Machine { return s.machine }

// Run replays the feed through the pipeline until end of stream, the
// context is cancelled, or a fatal ledger fault halts the session.
func (s *Session) Run(ctx context.Context, feed market.Feed) error {
	defer s.jnl.Close()

	for {
		bar, err := feed.Next(ctx)
		if errors.Is(err, market.ErrEndOfStream) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := s.Cycle(ctx, bar); err != nil {
			return err
		}
	}
}

// Cycle processes one bar-close event. Order inside a cycle:
//
//  1. apply venue fills for this bar (ledger mutates before any read)
//  2. sweep submission timeouts
//  3. exit checks, where breached stops synthesize closing intents
//  4. monitoring tick
//  5. concurrent strategy inference, joined before aggregation
//  6. aggregate, evaluate, size and submit, in ranked order
func (s *Session) Cycle(ctx context.Context, bar market.Bar) error {
	if err := s.venue.OnBar(bar); err != nil {
		return s.fatal(bar.Time, err)
	}

	s.machine.SweepTimeouts(bar.Time)

	for _, intent := range s.machine.CheckExits(map[string]float64{bar.Symbol: bar.Close}, bar.Time) {
		if _, err := s.machine.SubmitIntent(ctx, intent); err != nil {
			return s.fatal(bar.Time, err)
		}
	}

	s.monitoringTick(bar.Time)

	sigs, err := s.inference(ctx, bar)
	if err != nil {
		return err
	}

	for _, sig := range sigs {
		s.machine.CancelSuperseded(sig)
	}

	for _, cand := range signal.Aggregate(sigs, s.openDirections()) {
		if err := s.dispatch(ctx, cand, bar.Time); err != nil {
			return err
		}
	}
	return nil
}

// inference fans strategy evaluation out per instance and joins the results
// before aggregation. This join is the pipeline's only synchronization
// barrier; strategies never touch the ledger.
func (s *Session) inference(ctx context.Context, bar market.Bar) ([]signal.Signal, error) {
	var (
		mu   sync.Mutex
		sigs []signal.Signal
		errs []error
		wg   sync.WaitGroup
	)

	for _, strat := range s.strats {
		wg.Add(1)
		go func(st signal.Strategy) {
			defer wg.Done()
			sig, err := st.OnBar(ctx, bar)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", st.Name(), err))
				return
			}
			if sig != nil {
				sigs = append(sigs, *sig)
			}
		}(strat)
	}
	wg.Wait()

	if len(errs) > 0 {
		return nil, errs[0]
	}

	// Goroutine completion order is not deterministic; the pipeline is.
	sort.Slice(sigs, func(i, j int) bool {
		if sigs[i].Symbol != sigs[j].Symbol {
			return sigs[i].Symbol < sigs[j].Symbol
		}
		return sigs[i].Strategy < sigs[j].Strategy
	})
	return sigs, nil
}

func (s *Session) dispatch(ctx context.Context, cand signal.RankedCandidate, now time.Time) error {
	decision := s.riskEngine.Evaluate(cand, s.led)
	if decision.Action == risk.Reject {
		log.Printf("engine: reject %s %s: %s", cand.Symbol, cand.Direction, decision.Reason)
		if err := s.jnl.RecordRejection(journal.RejectionRecord{
			Symbol: cand.Symbol,
			Reason: decision.Reason,
			Time:   now,
		}); err != nil {
			log.Printf("engine: journal rejection for %s: %v", cand.Symbol, err)
		}
		return nil
	}

	ref, err := s.referencePrice(cand.Symbol)
	if err != nil {
		return err
	}

	intent, err := s.sizer.Size(decision, cand, s.led.Equity(), ref, now)
	if errors.Is(err, sizing.ErrBelowMinLot) {
		log.Printf("engine: drop %s %s: %s", cand.Symbol, cand.Direction, sizing.ReasonBelowMinLot)
		if err := s.jnl.RecordRejection(journal.RejectionRecord{
			Symbol: cand.Symbol,
			Reason: sizing.ReasonBelowMinLot,
			Time:   now,
		}); err != nil {
			log.Printf("engine: journal rejection for %s: %v", cand.Symbol, err)
		}
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := s.machine.SubmitIntent(ctx, intent); err != nil {
		return s.fatal(now, err)
	}
	return nil
}

func (s *Session) monitoringTick(now time.Time) {
	if s.interval > 0 && !s.lastCheck.IsZero() && now.Sub(s.lastCheck) < s.interval {
		return
	}
	s.lastCheck = now

	snap := s.led.Snapshot(now)
	if err := s.jnl.RecordEquity(journal.EquitySnapshot{
		Time:        snap.Time,
		Cash:        snap.Cash,
		Equity:      snap.Equity,
		PeakEquity:  snap.PeakEquity,
		DailyLoss:   snap.DailyLoss,
		DrawdownPct: snap.DrawdownPct,
		Open:        len(snap.Positions),
	}); err != nil {
		log.Printf("engine: journal equity snapshot: %v", err)
	}

	if s.hub == nil {
		return
	}
	s.hub.PublishSnapshot(snap)
	for _, a := range monitor.Check(snap, s.cfg.Monitoring.Thresholds) {
		s.hub.PublishAlert(a)
	}
}

// fatal handles a ledger fault: the ledger is halted, a critical alert goes
// out, and the error propagates so Run stops. Resuming requires manual
// reconciliation.
func (s *Session) fatal(now time.Time, err error) error {
	if !errors.Is(err, ledger.ErrInconsistent) {
		return err
	}
	s.led.Halt()
	if s.hub != nil {
		s.hub.PublishAlert(monitor.Alert{
			Kind:     monitor.KindLedgerFault,
			Severity: monitor.SeverityCritical,
			Value:    s.led.Equity(),
		})
	}
	return fmt.Errorf("session halted at %s: %w", now.Format(time.RFC3339), err)
}

func (s *Session) referencePrice(symbol string) (float64, error) {
	if p, ok := s.led.Position(symbol); ok {
		return p.CurrentPrice, nil
	}
	// No position yet: the last mark is unknown to the ledger, so fall
	// back to the most recent fill-adjacent price the venue saw.
	if p, err := s.venue.LastPrice(symbol); err == nil {
		return p, nil
	}
	return 0, fmt.Errorf("engine: no reference price for %s", symbol)
}

func (s *Session) openDirections() map[string]signal.Direction {
	out := make(map[string]signal.Direction)
	for sym, sign := range s.led.OpenDirections() {
		out[sym] = signal.Direction(sign)
	}
	return out
}

func openJournal(cfg config.JournalConfig) (journal.Journal, error) {
	switch cfg.Type {
	case "csv":
		return journal.NewCSV(cfg.OrdersFile, cfg.EquityFile)
	case "sqlite":
		return journal.NewSQLite(cfg.DBPath)
	default:
		return journal.Nop{}, nil
	}
}
