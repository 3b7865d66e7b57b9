package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCSV(t *testing.T) (*CSVJournal, string, string) {
	t.Helper()

	dir := t.TempDir()
	orders := filepath.Join(dir, "orders.csv")
	equity := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(orders, equity)
	require.NoError(t, err)

	return j, orders, equity
}

func readAll(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVHeaders(t *testing.T) {
	t.Parallel()

	j, orders, equity := newTestCSV(t)
	require.NoError(t, j.Close())

	orows := readAll(t, orders)
	require.Len(t, orows, 1)
	assert.Equal(t, "kind", orows[0][0])
	assert.Equal(t, "order_id", orows[0][1])

	erows := readAll(t, equity)
	require.Len(t, erows, 1)
	assert.Equal(t, "time", erows[0][0])
	assert.Equal(t, "equity", erows[0][2])
}

func TestCSVRecordKinds(t *testing.T) {
	t.Parallel()

	j, orders, _ := newTestCSV(t)

	ts := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordOrder(OrderRecord{
		OrderID:   "O1",
		Symbol:    "BTC_USD",
		Side:      "buy",
		Quantity:  2,
		State:     "SUBMITTED",
		CreatedAt: ts,
	}))
	require.NoError(t, j.RecordFill(FillRecord{
		OrderID:  "O1",
		Symbol:   "BTC_USD",
		Quantity: 2,
		Price:    100.5,
		Time:     ts,
	}))
	require.NoError(t, j.RecordRejection(RejectionRecord{
		Symbol: "ETH_USD",
		Reason: "daily_loss_limit",
		Time:   ts,
	}))
	require.NoError(t, j.Close())

	rows := readAll(t, orders)
	require.Len(t, rows, 4) // header + three records

	assert.Equal(t, "order", rows[1][0])
	assert.Equal(t, "O1", rows[1][1])
	assert.Equal(t, "SUBMITTED", rows[1][7])

	assert.Equal(t, "fill", rows[2][0])
	assert.Equal(t, "100.500000", rows[2][6])

	assert.Equal(t, "rejection", rows[3][0])
	assert.Equal(t, "ETH_USD", rows[3][2])
	assert.Equal(t, "daily_loss_limit", rows[3][8])
}

func TestCSVRecordEquity(t *testing.T) {
	t.Parallel()

	j, _, equity := newTestCSV(t)

	ts := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordEquity(EquitySnapshot{
		Time:        ts,
		Cash:        9000,
		Equity:      10000,
		PeakEquity:  10100,
		DailyLoss:   50,
		DrawdownPct: 0.0099,
		Open:        1,
	}))
	require.NoError(t, j.Close())

	rows := readAll(t, equity)
	require.Len(t, rows, 2)
	assert.Equal(t, ts.Format(time.RFC3339), rows[1][0])
	assert.Equal(t, "10000.000000", rows[1][2])
	assert.Equal(t, "1", rows[1][6])
}
