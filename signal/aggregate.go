package signal

import "sort"

// Aggregate collapses per-strategy signals into one ranked candidate per
// symbol.
//
// Disagreements resolve by confidence-weighted majority: confidence sums per
// direction, higher sum wins, an exact tie goes flat so the pipeline does
// not oscillate. Symbols already open in the same direction are dropped
// (no pyramiding). The result is sorted by aggregate confidence descending;
// that ordering decides who gets capital when limits are scarce.
//
// open maps symbol to the direction of its open position. Aggregate reads it
// only; ledger state is never mutated here.
func Aggregate(signals []Signal, open map[string]Direction) []RankedCandidate {
	// Last signal wins per (symbol, strategy).
	latest := make(map[string]map[string]Signal)
	for _, s := range signals {
		bySym, ok := latest[s.Symbol]
		if !ok {
			bySym = make(map[string]Signal)
			latest[s.Symbol] = bySym
		}
		prev, seen := bySym[s.Strategy]
		if !seen || !s.Time.Before(prev.Time) {
			bySym[s.Strategy] = s
		}
	}

	var out []RankedCandidate
	for symbol, bySym := range latest {
		var long, short float64
		for _, s := range bySym {
			switch s.Direction {
			case Long:
				long += s.Confidence
			case Short:
				short += s.Confidence
			}
		}

		var dir Direction
		var conf float64
		switch {
		case long > short:
			dir, conf = Long, long-short
		case short > long:
			dir, conf = Short, short-long
		default:
			continue // tie or all flat
		}
		if conf > 1 {
			conf = 1
		}

		if open[symbol] == dir {
			continue // already positioned this way
		}

		out = append(out, RankedCandidate{
			Symbol:     symbol,
			Direction:  dir,
			Confidence: conf,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}
