package risk

import (
	"github.com/rustyeddy/portsim/market"
	"github.com/shopspring/decimal"
)

var (
	// A margin call fires when balance drops below this share of initial capital.
	marginCallRatio = decimal.RequireFromString("0.25")

	// A position is at risk when its unrealized loss exceeds this share of
	// initial capital.
	atRiskRatio = decimal.RequireFromString("0.05")
)

// Position is the read-only view of an open trade the checker needs.
// Zero StopLoss/TakeProfit means unset.
type Position struct {
	ID         string
	Symbol     string
	Side       market.Side
	EntryPrice float64
	Quantity   float64
	StopLoss   float64
	TakeProfit float64
}

// UnrealizedPnL marks the position at price.
func (p Position) UnrealizedPnL(price float64) float64 {
	return (price - p.EntryPrice) * p.Quantity * p.Side.Sign()
}

// Trigger pairs a position with the live price that tripped a rule.
type Trigger struct {
	Position
	Price         float64
	UnrealizedPnL float64
}

// LimitReport lists the conditions found. Acting on them is up to the caller.
type LimitReport struct {
	MarginCall          bool
	StopLossTriggered   []Trigger
	TakeProfitTriggered []Trigger
	PositionsAtRisk     []Trigger
}

// Any reports whether any rule fired.
func (r LimitReport) Any() bool {
	return r.MarginCall || len(r.StopLossTriggered) > 0 ||
		len(r.TakeProfitTriggered) > 0 || len(r.PositionsAtRisk) > 0
}

// CheckLimits evaluates margin, stop-loss, take-profit and at-risk rules.
// Positions whose symbol has no entry in prices are only checked for margin.
func CheckLimits(balance, initialCapital float64, positions []Position, prices map[string]float64) LimitReport {
	var r LimitReport

	initial := decimal.NewFromFloat(initialCapital)
	r.MarginCall = decimal.NewFromFloat(balance).LessThan(initial.Mul(marginCallRatio))
	maxLoss := initial.Mul(atRiskRatio)

	for _, p := range positions {
		price, ok := prices[p.Symbol]
		if !ok {
			continue
		}
		upnl := p.UnrealizedPnL(price)
		tr := Trigger{Position: p, Price: price, UnrealizedPnL: upnl}

		if hitStopLoss(p, price) {
			r.StopLossTriggered = append(r.StopLossTriggered, tr)
		}
		if hitTakeProfit(p, price) {
			r.TakeProfitTriggered = append(r.TakeProfitTriggered, tr)
		}
		if decimal.NewFromFloat(-upnl).GreaterThan(maxLoss) {
			r.PositionsAtRisk = append(r.PositionsAtRisk, tr)
		}
	}
	return r
}

func hitStopLoss(p Position, price float64) bool {
	if p.StopLoss <= 0 {
		return false
	}
	if p.Side == market.Buy {
		return price <= p.StopLoss
	}
	return price >= p.StopLoss
}

func hitTakeProfit(p Position, price float64) bool {
	if p.TakeProfit <= 0 {
		return false
	}
	if p.Side == market.Buy {
		return price >= p.TakeProfit
	}
	return price <= p.TakeProfit
}
