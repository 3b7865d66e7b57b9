package market

import "time"

// Timeframe identifies the bar interval, e.g. "M1", "H1", "D".
type Timeframe string

// Bar represents one OHLCV candle for a symbol.
type Bar struct {
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	Time   time.Time
	TF     Timeframe
}

// Mid returns the midpoint of the bar's range.
func (b Bar) Mid() float64 {
	return (b.High + b.Low) / 2
}
