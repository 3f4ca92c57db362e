package market

import "time"

// Signal is a trade instruction produced by an upstream strategy layer.
// StopLoss and TakeProfit are price levels; zero means unset.
type Signal struct {
	Symbol     string
	Type       Side
	Time       time.Time
	StopLoss   float64
	TakeProfit float64

	// Quantity overrides position sizing when > 0.
	Quantity float64
}
