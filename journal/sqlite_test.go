package journal

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLiteJournal, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('orders','fills','equity','rejections')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	assert.True(t, found["orders"])
	assert.True(t, found["fills"])
	assert.True(t, found["equity"])
	assert.True(t, found["rejections"])
}

func TestSQLiteRecordOrderHistory(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	first := OrderRecord{
		OrderID:   "O1",
		Symbol:    "BTC_USD",
		Side:      "buy",
		Quantity:  1.5,
		State:     "SUBMITTED",
		CreatedAt: created,
	}
	second := first
	second.FilledQuantity = 1.5
	second.AvgFillPrice = 100.25
	second.State = "FILLED"

	require.NoError(t, j.RecordOrder(first))
	require.NoError(t, j.RecordOrder(second))

	hist, err := j.OrderHistory("O1")
	require.NoError(t, err)
	require.Len(t, hist, 2)

	assert.Equal(t, "SUBMITTED", hist[0].State)
	assert.Equal(t, "FILLED", hist[1].State)
	assert.InDelta(t, 1.5, hist[1].FilledQuantity, 1e-9)
	assert.InDelta(t, 100.25, hist[1].AvgFillPrice, 1e-9)
	assert.True(t, hist[0].CreatedAt.Equal(created))
}

func TestSQLiteRecordFill(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)

	ts := time.Date(2024, 1, 2, 4, 5, 6, 0, time.UTC)
	rec := FillRecord{
		OrderID:  "O1",
		Symbol:   "BTC_USD",
		Quantity: -2.5,
		Price:    99.5,
		Time:     ts,
	}

	require.NoError(t, j.RecordFill(rec))
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var (
		orderID string
		symbol  string
		qty     float64
		price   float64
		gotTime time.Time
	)
	err = db.QueryRow(`SELECT order_id, symbol, quantity, price, time FROM fills LIMIT 1`).
		Scan(&orderID, &symbol, &qty, &price, &gotTime)
	require.NoError(t, err)

	assert.Equal(t, rec.OrderID, orderID)
	assert.Equal(t, rec.Symbol, symbol)
	assert.InDelta(t, rec.Quantity, qty, 1e-9)
	assert.InDelta(t, rec.Price, price, 1e-9)
	assert.True(t, gotTime.Equal(ts))
}

func TestSQLiteRecordEquityAndRejection(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)

	ts := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	require.NoError(t, j.RecordEquity(EquitySnapshot{
		Time:        ts,
		Cash:        9000.5,
		Equity:      9995.25,
		PeakEquity:  10100,
		DailyLoss:   104.75,
		DrawdownPct: 0.0104,
		Open:        2,
	}))
	require.NoError(t, j.RecordRejection(RejectionRecord{
		Symbol: "ETH_USD",
		Reason: "max_positions",
		Time:   ts,
	}))
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var equity float64
	var open int
	require.NoError(t, db.QueryRow(`SELECT equity, open_positions FROM equity LIMIT 1`).Scan(&equity, &open))
	assert.InDelta(t, 9995.25, equity, 1e-9)
	assert.Equal(t, 2, open)

	var symbol, reason string
	require.NoError(t, db.QueryRow(`SELECT symbol, reason FROM rejections LIMIT 1`).Scan(&symbol, &reason))
	assert.Equal(t, "ETH_USD", symbol)
	assert.Equal(t, "max_positions", reason)
}
