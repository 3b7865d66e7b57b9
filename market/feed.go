package market

import (
	"context"
	"errors"
)

// ErrEndOfStream is returned by a Feed once the underlying source is
// exhausted (historical replay) or closed (live).
var ErrEndOfStream = errors.New("end of stream")

// Feed supplies bars to the decision cycle. Historical feeds replay in
// timestamp order; live feeds block until the next bar closes.
type Feed interface {
	// Next returns the next closed bar across all subscribed symbols.
	Next(ctx context.Context) (Bar, error)

	// Latest returns the most recent known price for a symbol.
	Latest(symbol string) (float64, error)
}

// SliceFeed replays an in-memory bar sequence. The caller is expected to
// provide bars already sorted by time.
type SliceFeed struct {
	bars   []Bar
	next   int
	latest *PriceStore
}

func NewSliceFeed(bars []Bar) *SliceFeed {
	return &SliceFeed{bars: bars, latest: NewPriceStore()}
}

func (f *SliceFeed) Next(ctx context.Context) (Bar, error) {
	if err := ctx.Err(); err != nil {
		return Bar{}, err
	}
	if f.next >= len(f.bars) {
		return Bar{}, ErrEndOfStream
	}
	b := f.bars[f.next]
	f.next++
	f.latest.Set(Quote{Symbol: b.Symbol, Price: b.Close, Time: b.Time})
	return b, nil
}

func (f *SliceFeed) Latest(symbol string) (float64, error) {
	q, err := f.latest.Get(symbol)
	if err != nil {
		return 0, err
	}
	return q.Price, nil
}
