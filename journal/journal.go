// Package journal persists closed trades and equity observations as they
// happen during a simulation run.
package journal

import "time"

// TradeRecord is one closed (or partially closed) trade.
type TradeRecord struct {
	TradeID    string
	Symbol     string
	Side       string
	Quantity   float64
	EntryPrice float64
	ExitPrice  float64
	OpenTime   time.Time
	CloseTime  time.Time
	PnL        float64 // net realized
	Commission float64
	Reason     string
}

// EquitySnapshot is one equity-curve point.
type EquitySnapshot struct {
	Time     time.Time
	Balance  float64
	Peak     float64
	Return   float64
	Drawdown float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error { return nil }

func (Nop) RecordEquity(EquitySnapshot) error { return nil }

func (Nop) Close() error { return nil }
