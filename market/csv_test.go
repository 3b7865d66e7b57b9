package market

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `time,symbol,open,high,low,close,volume
2024-01-02T09:00:00Z,BTC_USD,100,105,99,104,1200
2024-01-02T10:00:00Z,BTC_USD,104,108,103,107,900
`

func TestReadBars(t *testing.T) {
	t.Parallel()

	bars, err := ReadBars(strings.NewReader(sampleCSV), "H1")
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, "BTC_USD", bars[0].Symbol)
	assert.InDelta(t, 100, bars[0].Open, 1e-9)
	assert.InDelta(t, 104, bars[0].Close, 1e-9)
	assert.InDelta(t, 1200, bars[0].Volume, 1e-9)
	assert.Equal(t, Timeframe("H1"), bars[0].TF)
	assert.Equal(t, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), bars[0].Time)
	assert.InDelta(t, 102, bars[0].Mid(), 1e-9)
}

func TestReadBarsBadRow(t *testing.T) {
	t.Parallel()

	_, err := ReadBars(strings.NewReader("time,symbol,open,high,low,close,volume\nnot-a-time,BTC_USD,1,1,1,1,1\n"), "H1")
	assert.Error(t, err)

	_, err = ReadBars(strings.NewReader("time,symbol,open,high,low,close,volume\n2024-01-02T09:00:00Z,BTC_USD,x,1,1,1,1\n"), "H1")
	assert.Error(t, err)
}
