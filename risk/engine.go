package risk

import (
	"github.com/rustyeddy/quantcore/ledger"
	"github.com/rustyeddy/quantcore/signal"
)

// Action is the outcome class of a risk evaluation.
type Action int

const (
	Reject Action = iota
	Approve
	Resize
)

func (a Action) String() string {
	switch a {
	case Approve:
		return "approve"
	case Resize:
		return "resize"
	default:
		return "reject"
	}
}

// Rejection reason codes. These are stable strings: they end up in journal
// records and alerts.
const (
	ReasonDrawdownHalt = "drawdown_limit_exceeded"
	ReasonDailyLoss    = "daily_loss_limit"
	ReasonMaxPositions = "max_positions"
	ReasonCorrelation  = "correlation_limit"
)

// Decision is the result of evaluating one candidate. Fraction is the
// approved fraction of equity (set for Approve and Resize only).
type Decision struct {
	Action   Action
	Fraction float64
	Reason   string
}

// CorrelationFn returns the rolling correlation between two symbols.
// Correlation is computed externally; the engine only consumes it.
type CorrelationFn func(a, b string) float64

// Engine applies the configured limits to candidates against the live
// ledger. Evaluate never mutates the ledger; exposure only changes on
// confirmed fills so unexecuted orders cannot create phantom exposure.
type Engine struct {
	limits Limits
	corr   CorrelationFn // nil skips the correlation check
}

func NewEngine(limits Limits, corr CorrelationFn) *Engine {
	return &Engine{limits: limits, corr: corr}
}

func (e *Engine) Limits() Limits { return e.limits }

// Evaluate runs the checks in fixed order; the first failure short-circuits
// to a Reject with its reason. A Resize is not a failure: the candidate
// proceeds to sizing with the capped fraction. Rejections are terminal for
// this cycle only.
func (e *Engine) Evaluate(c signal.RankedCandidate, led *ledger.Ledger) Decision {
	// 1. Global halt.
	if led.Mode() == ledger.Halted {
		return Decision{Action: Reject, Reason: ReasonDrawdownHalt}
	}

	// 2. Daily loss circuit breaker.
	if e.limits.MaxDailyLoss > 0 && led.PeakEquity() > 0 {
		if led.DailyLoss()/led.PeakEquity() >= e.limits.MaxDailyLoss {
			return Decision{Action: Reject, Reason: ReasonDailyLoss}
		}
	}

	// 3. Position count. Symbols already open may still trade (reduce or
	// flip) without consuming a new slot.
	if led.OpenCount() >= e.limits.MaxOpenPositions && !led.HasPosition(c.Symbol) {
		return Decision{Action: Reject, Reason: ReasonMaxPositions}
	}

	// 4. Correlation against every open position.
	if e.corr != nil && e.limits.MaxCorrelation > 0 {
		for _, p := range led.Positions() {
			if p.Symbol == c.Symbol {
				continue
			}
			if e.corr(c.Symbol, p.Symbol) > e.limits.MaxCorrelation {
				return Decision{Action: Reject, Reason: ReasonCorrelation}
			}
		}
	}

	// 5. Size cap.
	stopDist := c.StopDistance
	if stopDist <= 0 {
		stopDist = e.limits.StopLoss
	}
	desired := e.limits.PositionSize
	if e.limits.RiskPerTrade > 0 && stopDist > 0 {
		if byRisk := e.limits.RiskPerTrade / stopDist; byRisk < desired {
			desired = byRisk
		}
	}
	if desired > e.limits.MaxPositionSize {
		return Decision{Action: Resize, Fraction: e.limits.MaxPositionSize}
	}
	return Decision{Action: Approve, Fraction: desired}
}
