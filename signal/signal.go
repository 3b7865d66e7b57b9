// Package signal defines strategy output signals and the aggregation step
// that turns them into ranked trade candidates.
package signal

import (
	"context"
	"time"

	"github.com/rustyeddy/quantcore/market"
)

// Direction is the side a signal votes for. Flat means "no action".
type Direction int8

const (
	Flat  Direction = 0
	Long  Direction = 1
	Short Direction = -1
)

func (d Direction) String() string {
	switch d {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "flat"
	}
}

// Signal is a single strategy's directional opinion on a symbol at a point
// in time. Signals are immutable; a newer signal from the same strategy for
// the same symbol supersedes the older one.
type Signal struct {
	Symbol     string
	Time       time.Time
	Direction  Direction
	Confidence float64 // [0,1]
	Strategy   string
}

// RankedCandidate is an aggregated trading opportunity. StopDistance is the
// fractional distance to the protective stop used by the risk engine when
// sizing; zero means "use the configured default".
type RankedCandidate struct {
	Symbol       string
	Direction    Direction
	Confidence   float64
	StopDistance float64
}

// Strategy is the capability interface every strategy variant implements.
// OnBar returns nil when the strategy has no opinion for this bar.
type Strategy interface {
	Name() string
	OnBar(ctx context.Context, bar market.Bar) (*Signal, error)
}
