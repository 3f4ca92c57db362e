package metrics

import (
	"math"
	"sort"

	"github.com/rustyeddy/portsim/equity"
)

// TradingDays annualizes event-indexed returns: each close counts as one
// trading day.
const TradingDays = 252

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

// stdev is the population standard deviation.
func stdev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// downsideDeviation is sqrt(mean(r^2)) over the negative returns only.
// ok is false when there are none.
func downsideDeviation(xs []float64) (dd float64, ok bool) {
	var ss float64
	var n int
	for _, x := range xs {
		if x < 0 {
			ss += x * x
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return math.Sqrt(ss / float64(n)), true
}

// sharpe is (mean*252 - rf) / (stdev*sqrt(252)), 0 for zero volatility.
func sharpe(returns []float64, riskFree float64) float64 {
	vol := stdev(returns) * math.Sqrt(TradingDays)
	if vol == 0 {
		return 0
	}
	return (mean(returns)*TradingDays - riskFree) / vol
}

// correlation is the Pearson correlation of two equal-length series.
func correlation(a, b []float64) float64 {
	sa, sb := stdev(a), stdev(b)
	if len(a) == 0 || sa == 0 || sb == 0 {
		return 0
	}
	ma, mb := mean(a), mean(b)
	var cov float64
	for i := range a {
		cov += (a[i] - ma) * (b[i] - mb)
	}
	cov /= float64(len(a))
	return cov / (sa * sb)
}

// tail returns the empirical 5% value at risk and the mean of the returns
// at or below it.
func tail(returns []float64) (var95, cvar95 float64) {
	if len(returns) == 0 {
		return 0, 0
	}
	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)

	idx := int(math.Floor(0.05 * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx], mean(sorted[:idx+1])
}

// returnsOf derives event returns from successive curve points.
func returnsOf(points []equity.Point) []float64 {
	if len(points) < 2 {
		return nil
	}
	out := make([]float64, len(points)-1)
	for i := 1; i < len(points); i++ {
		if prev := points[i-1].Value; prev != 0 {
			out[i-1] = (points[i].Value - prev) / prev
		}
	}
	return out
}
