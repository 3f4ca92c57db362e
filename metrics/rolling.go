package metrics

import (
	"time"

	"github.com/rustyeddy/portsim/equity"
	"github.com/rustyeddy/portsim/sim"
)

// Series holds one value per window position. All slices have the same
// length.
type Series struct {
	Dates    []time.Time `json:"dates"`
	Returns  []float64   `json:"returns"`  // sum of returns in the window
	Sharpe   []float64   `json:"sharpe"`   // annualized, same formula as the report
	Drawdown []float64   `json:"drawdown"` // max drawdown inside the window
	WinRate  []float64   `json:"winRate"`  // trades closed inside the window
}

// Rolling slides a window of windowSize returns across the equity curve.
// Window i covers returns [i, i+windowSize), which span curve points
// [i, i+windowSize]; it is dated at its last point. The result is empty when
// there are fewer returns than windowSize.
func Rolling(in Input, windowSize int) Series {
	out := Series{
		Dates:    []time.Time{},
		Returns:  []float64{},
		Sharpe:   []float64{},
		Drawdown: []float64{},
		WinRate:  []float64{},
	}

	returns := returnsOf(in.Curve)
	if windowSize <= 0 || windowSize > len(returns) {
		return out
	}

	values := make([]float64, len(in.Curve))
	for i, p := range in.Curve {
		values[i] = p.Value
	}

	for i := 0; i+windowSize <= len(returns); i++ {
		window := returns[i : i+windowSize]

		var sum float64
		for _, r := range window {
			sum += r
		}

		out.Dates = append(out.Dates, in.Curve[i+windowSize].Date)
		out.Returns = append(out.Returns, sum)
		out.Sharpe = append(out.Sharpe, sharpe(window, in.Config.RiskFreeRate))
		out.Drawdown = append(out.Drawdown, equity.MaxDrawdownOf(values[i:i+windowSize+1]))
		out.WinRate = append(out.WinRate, winRateOf(in.Trades, i, i+windowSize))
	}
	return out
}

// winRateOf is the share of winners among trades[from:to]. Curve point k
// was produced by the k-th close, so window i holds trades [i, i+w).
func winRateOf(trades []sim.Trade, from, to int) float64 {
	to = min(to, len(trades))
	if from >= to {
		return 0
	}
	var wins int
	for _, t := range trades[from:to] {
		if t.PnL > 0 {
			wins++
		}
	}
	return float64(wins) / float64(to-from)
}
