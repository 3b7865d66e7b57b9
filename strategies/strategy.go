// Package strategies holds the built-in strategy implementations and the
// name resolution used at session start. Strategies are capability
// instances: each one is bound to a single symbol and carries no shared
// state, so per-symbol inference can fan out concurrently.
package strategies

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/quantcore/signal"
)

// Options are the tunables shared by the built-in strategies.
type Options struct {
	FastPeriod int
	SlowPeriod int
}

func (o Options) withDefaults() Options {
	if o.FastPeriod <= 0 {
		o.FastPeriod = 10
	}
	if o.SlowPeriod <= 0 {
		o.SlowPeriod = 30
	}
	return o
}

// Resolve maps a configured strategy identifier to a concrete instance for
// one symbol. Unknown names are a configuration error at session start;
// there is no runtime string dispatch past this point.
func Resolve(name, symbol string, opts Options) (signal.Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "noop", "none":
		return Noop{}, nil

	case "ema-cross", "emacross":
		o := opts.withDefaults()
		return NewEMACross(symbol, o.FastPeriod, o.SlowPeriod), nil

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: noop, ema-cross)", name)
	}
}

// ResolveAll instantiates every enabled strategy for every symbol.
func ResolveAll(names, symbols []string, opts Options) ([]signal.Strategy, error) {
	var out []signal.Strategy
	for _, name := range names {
		for _, sym := range symbols {
			s, err := Resolve(name, sym, opts)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
	}
	return out, nil
}
