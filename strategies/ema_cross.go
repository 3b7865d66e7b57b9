package strategies

import (
	"context"
	"math"

	"github.com/rustyeddy/quantcore/market"
	"github.com/rustyeddy/quantcore/signal"
)

// EMACross signals on a fast/slow EMA crossover of bar closes for one
// symbol. It signals only on the cross itself; between crosses it stays
// quiet rather than repeating its opinion every bar.
type EMACross struct {
	symbol string
	fast   *ema
	slow   *ema

	lastDiff     float64
	haveLastDiff bool
}

func NewEMACross(symbol string, fastPeriod, slowPeriod int) *EMACross {
	return &EMACross{
		symbol: symbol,
		fast:   newEMA(fastPeriod),
		slow:   newEMA(slowPeriod),
	}
}

func (s *EMACross) Name() string { return "ema-cross" }

func (s *EMACross) OnBar(_ context.Context, bar market.Bar) (*signal.Signal, error) {
	if bar.Symbol != s.symbol {
		return nil, nil
	}

	s.fast.update(bar.Close)
	s.slow.update(bar.Close)
	if !s.fast.ready() || !s.slow.ready() {
		return nil, nil
	}

	diff := s.fast.value - s.slow.value
	if !s.haveLastDiff {
		s.lastDiff = diff
		s.haveLastDiff = true
		return nil, nil
	}

	bullCross := diff > 0 && s.lastDiff <= 0
	bearCross := diff < 0 && s.lastDiff >= 0
	s.lastDiff = diff

	var dir signal.Direction
	switch {
	case bullCross:
		dir = signal.Long
	case bearCross:
		dir = signal.Short
	default:
		return nil, nil
	}

	return &signal.Signal{
		Symbol:     s.symbol,
		Time:       bar.Time,
		Direction:  dir,
		Confidence: crossConfidence(diff, bar.Close),
		Strategy:   s.Name(),
	}, nil
}

// crossConfidence grows with the EMA separation relative to price, floored
// at 0.5 so a fresh cross always clears typical aggregation thresholds.
func crossConfidence(diff, price float64) float64 {
	if price <= 0 {
		return 0.5
	}
	sep := math.Abs(diff) / price
	return 0.5 + math.Min(0.5, sep*100)
}

// ema is a streaming exponential moving average seeded by a simple average
// over the first period values.
type ema struct {
	period int
	k      float64
	value  float64
	sum    float64
	count  int
}

func newEMA(period int) *ema {
	return &ema{period: period, k: 2 / float64(period+1)}
}

func (e *ema) update(v float64) {
	e.count++
	if e.count <= e.period {
		e.sum += v
		e.value = e.sum / float64(e.count)
		return
	}
	e.value = v*e.k + e.value*(1-e.k)
}

func (e *ema) ready() bool { return e.count >= e.period }
