package market

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceFeedReplay(t *testing.T) {
	t.Parallel()

	bars := []Bar{
		{Symbol: "BTC_USD", Close: 100, Time: time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)},
		{Symbol: "BTC_USD", Close: 101, Time: time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)},
	}
	feed := NewSliceFeed(bars)

	ctx := context.Background()

	b, err := feed.Next(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 100, b.Close, 1e-9)

	p, err := feed.Latest("BTC_USD")
	require.NoError(t, err)
	assert.InDelta(t, 100, p, 1e-9)

	b, err = feed.Next(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 101, b.Close, 1e-9)

	_, err = feed.Next(ctx)
	assert.ErrorIs(t, err, ErrEndOfStream)
}

func TestSliceFeedContextCancelled(t *testing.T) {
	t.Parallel()

	feed := NewSliceFeed([]Bar{{Symbol: "BTC_USD", Close: 100}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := feed.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPriceStore(t *testing.T) {
	t.Parallel()

	ps := NewPriceStore()
	_, err := ps.Get("BTC_USD")
	assert.ErrorIs(t, err, ErrNoPrice)

	ps.Set(Quote{Symbol: "BTC_USD", Price: 100})
	q, err := ps.Get("BTC_USD")
	require.NoError(t, err)
	assert.InDelta(t, 100, q.Price, 1e-9)
	assert.Equal(t, []string{"BTC_USD"}, ps.Symbols())
}
