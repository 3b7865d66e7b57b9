package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// LoadCSV reads bars from a CSV file with the header
// time,symbol,open,high,low,close,volume. Rows must be sorted by time.
func LoadCSV(path string, tf Timeframe) ([]Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars: %w", err)
	}
	defer f.Close()
	return ReadBars(f, tf)
}

// ReadBars parses CSV bar rows from r. The first row is treated as a header
// and skipped.
func ReadBars(r io.Reader, tf Timeframe) ([]Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 7

	var bars []Bar
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read bars row %d: %w", line, err)
		}
		line++
		if line == 1 {
			continue // header
		}

		t, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			return nil, fmt.Errorf("row %d time: %w", line, err)
		}

		vals := make([]float64, 5)
		for i, field := range rec[2:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d field %d: %w", line, i+2, err)
			}
			vals[i] = v
		}

		bars = append(bars, Bar{
			Time:   t,
			Symbol: rec[1],
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
			TF:     tf,
		})
	}
	return bars, nil
}
