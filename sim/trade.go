package sim

import (
	"time"

	"github.com/rustyeddy/portsim/market"
)

type Status string

const (
	Open   Status = "OPEN"
	Closed Status = "CLOSED"
)

// Trade is a position in the ledger. Open trades are mutated in place by
// partial closes; closed records are immutable once appended.
type Trade struct {
	ID         string
	Symbol     string
	Side       market.Side
	EntryTime  time.Time
	EntryPrice float64 // after slippage
	Quantity   float64

	// Commission is the entry commission attributable to Quantity while
	// open; on a closed record it also includes the exit commission.
	Commission float64

	Status    Status
	ExitTime  time.Time
	ExitPrice float64 // after slippage
	PnL       float64 // net of exit commission

	StopLoss   float64
	TakeProfit float64

	fills int
}

// Notional is the entry value of the position.
func (t Trade) Notional() float64 {
	return t.EntryPrice * t.Quantity
}

// Duration is the holding time of a closed trade.
func (t Trade) Duration() time.Duration {
	if t.ExitTime.IsZero() {
		return 0
	}
	return t.ExitTime.Sub(t.EntryTime)
}

// Return is net P&L relative to entry notional.
func (t Trade) Return() float64 {
	n := t.Notional()
	if n == 0 {
		return 0
	}
	return t.PnL / n
}

// UnrealizedPnL marks an open trade at price, before exit costs.
func (t Trade) UnrealizedPnL(price float64) float64 {
	return (price - t.EntryPrice) * t.Quantity * t.Side.Sign()
}

// Reason explains why an open or close request was not applied.
type Reason string

const (
	PositionLimitExceeded Reason = "POSITION_LIMIT_EXCEEDED"
	InsufficientFunds     Reason = "INSUFFICIENT_FUNDS"
	InvalidOrder          Reason = "INVALID_ORDER"
	InvalidQuantity       Reason = "INVALID_QUANTITY"
	NoOpenPosition        Reason = "NO_OPEN_POSITION"
	OverClose             Reason = "OVER_CLOSE"
)

// OpenRequest asks the simulator to open a position at Price. Quantity of
// zero defers to the configured sizing policy. StopLoss and TakeProfit are
// optional price levels.
type OpenRequest struct {
	Symbol     string
	Side       market.Side
	Price      float64
	Time       time.Time
	Quantity   float64
	StopLoss   float64
	TakeProfit float64
}

type OpenResult struct {
	Accepted bool
	Reason   Reason
	Trade    Trade
}

// CloseRequest closes the oldest open trade for Symbol. Quantity of zero
// closes whatever remains of that trade.
type CloseRequest struct {
	Symbol   string
	Price    float64
	Time     time.Time
	Quantity float64
}

type CloseResult struct {
	Closed bool
	Reason Reason
	Trade  Trade // the closed record
}
