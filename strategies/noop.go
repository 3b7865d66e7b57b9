package strategies

import (
	"context"

	"github.com/rustyeddy/quantcore/market"
	"github.com/rustyeddy/quantcore/signal"
)

// Noop never signals. Useful as a pipeline smoke test.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) OnBar(context.Context, market.Bar) (*signal.Signal, error) {
	return nil, nil
}
