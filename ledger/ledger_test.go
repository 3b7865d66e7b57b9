package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(h int) time.Time {
	return time.Date(2024, 1, 2, h, 0, 0, 0, time.UTC)
}

func fill(t *testing.T, l *Ledger, symbol string, qty, price float64, stops Stops) {
	t.Helper()
	require.NoError(t, l.ApplyFill(symbol, qty, price, at(9), stops))
}

func TestApplyFillOpensPosition(t *testing.T) {
	t.Parallel()

	l := New(10000, 0.20)
	fill(t, l, "BTC_USD", 2, 100, Stops{StopLoss: 95, TakeProfit: 110})

	p, ok := l.Position("BTC_USD")
	require.True(t, ok)
	assert.InDelta(t, 2, p.Quantity, 1e-9)
	assert.InDelta(t, 100, p.EntryPrice, 1e-9)
	assert.InDelta(t, 95, p.StopLoss, 1e-9)

	assert.InDelta(t, 9800, l.Cash(), 1e-9)
	assert.InDelta(t, 10000, l.Equity(), 1e-9)
	assert.NoError(t, l.Reconcile())
}

func TestApplyFillScaleInWeightedEntry(t *testing.T) {
	t.Parallel()

	l := New(10000, 0.20)
	fill(t, l, "BTC_USD", 2, 100, Stops{})
	fill(t, l, "BTC_USD", 2, 110, Stops{})

	p, ok := l.Position("BTC_USD")
	require.True(t, ok)
	assert.InDelta(t, 4, p.Quantity, 1e-9)
	assert.InDelta(t, 105, p.EntryPrice, 1e-9)

	// The second fill marked the first 2 units up by 10 before applying.
	assert.InDelta(t, 10020, l.Equity(), 1e-9)
	assert.InDelta(t, 9580, l.Cash(), 1e-9)
	assert.NoError(t, l.Reconcile())
}

func TestApplyFillRealizesLossOnReduce(t *testing.T) {
	t.Parallel()

	l := New(10000, 0.20)
	fill(t, l, "BTC_USD", 2, 100, Stops{})
	fill(t, l, "BTC_USD", -1, 90, Stops{})

	p, ok := l.Position("BTC_USD")
	require.True(t, ok)
	assert.InDelta(t, 1, p.Quantity, 1e-9)
	assert.InDelta(t, 100, p.EntryPrice, 1e-9)

	assert.InDelta(t, 10, l.DailyLoss(), 1e-9)
	assert.InDelta(t, 9980, l.Equity(), 1e-9)
	assert.NoError(t, l.Reconcile())
}

func TestApplyFillCloseRemovesPosition(t *testing.T) {
	t.Parallel()

	l := New(10000, 0.20)
	fill(t, l, "BTC_USD", 1, 100, Stops{})
	fill(t, l, "BTC_USD", -1, 105, Stops{})

	assert.False(t, l.HasPosition("BTC_USD"))
	assert.Equal(t, 0, l.OpenCount())
	assert.InDelta(t, 10005, l.Cash(), 1e-9)
	assert.InDelta(t, 10005, l.Equity(), 1e-9)
	assert.InDelta(t, 0, l.DailyLoss(), 1e-9)
	assert.NoError(t, l.Reconcile())
}

func TestApplyFillFlipResetsEntry(t *testing.T) {
	t.Parallel()

	l := New(10000, 0.20)
	fill(t, l, "ETH_USD", 1, 100, Stops{})
	fill(t, l, "ETH_USD", -3, 110, Stops{StopLoss: 115})

	p, ok := l.Position("ETH_USD")
	require.True(t, ok)
	assert.InDelta(t, -2, p.Quantity, 1e-9)
	assert.InDelta(t, 110, p.EntryPrice, 1e-9)
	assert.InDelta(t, 115, p.StopLoss, 1e-9)
	assert.NoError(t, l.Reconcile())
}

func TestApplyFillRejectsBadInput(t *testing.T) {
	t.Parallel()

	l := New(10000, 0.20)
	assert.Error(t, l.ApplyFill("BTC_USD", 0, 100, at(9), Stops{}))
	assert.Error(t, l.ApplyFill("BTC_USD", 1, -5, at(9), Stops{}))
}

func TestDrawdownHaltsLedger(t *testing.T) {
	t.Parallel()

	l := New(1000, 0.20)
	fill(t, l, "BTC_USD", 10, 100, Stops{})
	require.Equal(t, Active, l.Mode())

	l.Mark("BTC_USD", 75)

	assert.Equal(t, Halted, l.Mode())
	assert.InDelta(t, 0.25, l.Drawdown(), 1e-9)

	l.Resume()
	assert.Equal(t, Active, l.Mode())
}

func TestMarkReturnsBreachReason(t *testing.T) {
	t.Parallel()

	l := New(10000, 0)
	fill(t, l, "BTC_USD", 1, 100, Stops{StopLoss: 95, TakeProfit: 110})

	assert.Equal(t, "", l.Mark("BTC_USD", 100))
	assert.Equal(t, "TakeProfit", l.Mark("BTC_USD", 111))
	assert.Equal(t, "StopLoss", l.Mark("BTC_USD", 94))
	assert.Equal(t, "", l.Mark("NO_SUCH", 50))
}

func TestMarkShortBreaches(t *testing.T) {
	t.Parallel()

	l := New(10000, 0)
	fill(t, l, "BTC_USD", -1, 100, Stops{StopLoss: 105, TakeProfit: 90})

	assert.Equal(t, "StopLoss", l.Mark("BTC_USD", 106))
	assert.Equal(t, "TakeProfit", l.Mark("BTC_USD", 89))
}

func TestTrailingStopRatchets(t *testing.T) {
	t.Parallel()

	l := New(10000, 0)
	fill(t, l, "BTC_USD", 1, 100, Stops{StopLoss: 95, TrailingDistance: 5})

	require.Equal(t, "", l.Mark("BTC_USD", 105))
	p, _ := l.Position("BTC_USD")
	assert.InDelta(t, 100, p.StopLoss, 1e-9)

	// Adverse move leaves the ratcheted stop in place.
	require.Equal(t, "", l.Mark("BTC_USD", 102))
	p, _ = l.Position("BTC_USD")
	assert.InDelta(t, 100, p.StopLoss, 1e-9)

	assert.Equal(t, "StopLoss", l.Mark("BTC_USD", 99))
}

func TestReconcileDetectsCorruption(t *testing.T) {
	t.Parallel()

	l := New(10000, 0.20)
	fill(t, l, "BTC_USD", 2, 100, Stops{})
	require.NoError(t, l.Reconcile())

	l.mu.Lock()
	l.cash += 50
	l.mu.Unlock()

	assert.ErrorIs(t, l.Reconcile(), ErrInconsistent)
	assert.Equal(t, Halted, l.Mode())
}

func TestResetDailyClearsCounters(t *testing.T) {
	t.Parallel()

	l := New(10000, 0)
	fill(t, l, "BTC_USD", 2, 100, Stops{})
	fill(t, l, "BTC_USD", -2, 90, Stops{})
	require.InDelta(t, 20, l.DailyLoss(), 1e-9)

	l.ResetDaily()
	assert.InDelta(t, 0, l.DailyLoss(), 1e-9)
}

func TestOpenDirections(t *testing.T) {
	t.Parallel()

	l := New(10000, 0)
	fill(t, l, "BTC_USD", 2, 100, Stops{})
	fill(t, l, "ETH_USD", -3, 50, Stops{})

	dirs := l.OpenDirections()
	assert.Equal(t, int8(1), dirs["BTC_USD"])
	assert.Equal(t, int8(-1), dirs["ETH_USD"])
	assert.Len(t, dirs, 2)
}

func TestSnapshotSortedAndDetached(t *testing.T) {
	t.Parallel()

	l := New(10000, 0.20)
	fill(t, l, "ETH_USD", 1, 50, Stops{})
	fill(t, l, "BTC_USD", 1, 100, Stops{})

	s := l.Snapshot(at(10))
	require.Len(t, s.Positions, 2)
	assert.Equal(t, "BTC_USD", s.Positions[0].Symbol)
	assert.Equal(t, "ETH_USD", s.Positions[1].Symbol)
	assert.Equal(t, "ACTIVE", s.Mode)

	// Snapshot copies never reach back into the ledger.
	s.Positions[0].Quantity = 999
	p, _ := l.Position("BTC_USD")
	assert.InDelta(t, 1, p.Quantity, 1e-9)
}
