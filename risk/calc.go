package risk

import "math"

// RewardRisk is the distance to the take-profit level over the distance to
// the stop. It is zero when either level is unset or the stop sits at entry.
func RewardRisk(entry, stop, takeProfit float64) float64 {
	if stop <= 0 || takeProfit <= 0 {
		return 0
	}
	risk := math.Abs(entry - stop)
	if risk == 0 {
		return 0
	}
	return math.Abs(takeProfit-entry) / risk
}

// PlannedRisk is the cash lost if qty units entered at entry exit at stop.
func PlannedRisk(qty, entry, stop float64) float64 {
	if stop <= 0 {
		return 0
	}
	return math.Abs(qty) * math.Abs(entry-stop)
}

// RiskPct expresses planned risk as a share of equity.
func RiskPct(planned, equity float64) float64 {
	if equity <= 0 {
		return math.Inf(1)
	}
	return planned / equity
}
