package risk

import (
	"fmt"
	"math"
)

// PolicyType selects how Size turns account state into a quantity.
type PolicyType string

const (
	Fixed      PolicyType = "fixed"      // Value is notional cash per trade
	Percentage PolicyType = "percentage" // Value is percent of balance (10 = 10%)
	Kelly      PolicyType = "kelly"      // Value unused
	Volatility PolicyType = "volatility" // Value multiplies the 2% base risk
)

const (
	// BaseRiskFraction is the share of balance used by the volatility policy
	// and by Kelly before any win/loss history exists.
	BaseRiskFraction = 0.02

	// KellyCap is the ceiling applied to the Kelly fraction.
	KellyCap = 0.25
)

// Sizer converts account state into a trade quantity. Implementations must be
// pure functions of their arguments.
type Sizer interface {
	Size(symbol string, entryPrice, balance float64, history []float64) float64
}

// SizingPolicy is the caller-selected sizing rule. MaxRisk, when positive,
// caps the committed notional at balance*MaxRisk.
type SizingPolicy struct {
	Type    PolicyType `json:"type" yaml:"type"`
	Value   float64    `json:"value" yaml:"value"`
	MaxRisk float64    `json:"max_risk,omitempty" yaml:"max_risk,omitempty"`
}

func (p SizingPolicy) Validate() error {
	switch p.Type {
	case Fixed, Percentage:
		if p.Value <= 0 {
			return fmt.Errorf("%s sizing needs a positive value", p.Type)
		}
	case Kelly, Volatility:
	default:
		return fmt.Errorf("unknown sizing type %q", p.Type)
	}
	if p.MaxRisk < 0 || p.MaxRisk > 1 {
		return fmt.Errorf("max_risk must be between 0 and 1")
	}
	return nil
}

// Size returns the quantity to open. history holds the net P&L of every
// closed trade so far, in chronological order.
func (p SizingPolicy) Size(symbol string, entryPrice, balance float64, history []float64) float64 {
	if entryPrice <= 0 || balance <= 0 {
		return 0
	}

	var notional float64
	switch p.Type {
	case Fixed:
		notional = p.Value
	case Percentage:
		notional = balance * p.Value / 100
	case Volatility:
		mult := p.Value
		if mult <= 0 {
			mult = 1
		}
		notional = balance * BaseRiskFraction * mult
	case Kelly:
		f, ok := KellyFraction(history)
		if !ok {
			f = BaseRiskFraction
		}
		notional = balance * f
	default:
		return 0
	}

	if p.MaxRisk > 0 {
		notional = math.Min(notional, balance*p.MaxRisk)
	}
	if notional <= 0 {
		return 0
	}
	return notional / entryPrice
}

// KellyFraction derives the Kelly fraction from realized P&L history,
// clamped to [0, KellyCap]. ok is false until at least one win and one loss
// exist.
func KellyFraction(history []float64) (fraction float64, ok bool) {
	var wins, losses int
	var sumWin, sumLoss float64
	for _, pnl := range history {
		switch {
		case pnl > 0:
			wins++
			sumWin += pnl
		case pnl < 0:
			losses++
			sumLoss += pnl
		}
	}
	if wins == 0 || losses == 0 {
		return 0, false
	}

	p := float64(wins) / float64(len(history))
	b := (sumWin / float64(wins)) / math.Abs(sumLoss/float64(losses))

	f := (p*b - (1 - p)) / b
	return math.Max(0, math.Min(KellyCap, f)), true
}
