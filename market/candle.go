package market

import "time"

// Candle represents OHLC (Open, High, Low, Close) candlestick data
type Candle struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Frame is a single priced bar for one symbol. The backtest runner resolves
// signal execution prices and risk checks against Close.
type Frame struct {
	Symbol string
	Time   time.Time
	Candle
}

// Valid reports whether the frame carries a usable OHLC bar.
func (f Frame) Valid() bool {
	if f.Symbol == "" || f.Time.IsZero() {
		return false
	}
	if f.Close <= 0 || f.High < f.Low {
		return false
	}
	return true
}
