// Package metrics derives performance and risk statistics from a finished
// (or in-progress) simulation. Everything here is a pure function of its
// inputs; nothing is cached or persisted.
package metrics

import (
	"math"
	"time"

	"github.com/rustyeddy/portsim/config"
	"github.com/rustyeddy/portsim/equity"
	"github.com/rustyeddy/portsim/sim"
)

// Input is the read-only state a report is computed from.
type Input struct {
	Trades    []sim.Trade // closed records in close order
	Curve     []equity.Point
	Drawdowns []equity.Period
	Config    config.SimulatorConfig
	Balance   float64
}

// FromSimulator snapshots s for Compute and Rolling.
func FromSimulator(s *sim.Simulator) Input {
	return Input{
		Trades:    s.ClosedTrades(),
		Curve:     s.EquityCurve(),
		Drawdowns: s.Drawdowns(),
		Config:    s.Config(),
		Balance:   s.Balance(),
	}
}

// PerformanceMetrics is the full report. Ratios are fractions (0.1 = 10%).
// SortinoRatio is +Inf when no return was negative.
type PerformanceMetrics struct {
	TotalReturn      float64 `json:"totalReturn"`
	AnnualizedReturn float64 `json:"annualizedReturn"`
	NetProfit        float64 `json:"netProfit"`

	Volatility          float64 `json:"volatility"`
	SharpeRatio         float64 `json:"sharpeRatio"`
	SortinoRatio        float64 `json:"sortinoRatio"`
	CalmarRatio         float64 `json:"calmarRatio"`
	MaxDrawdown         float64 `json:"maxDrawdown"`
	MaxDrawdownDuration float64 `json:"maxDrawdownDuration"` // days
	RecoveryFactor      float64 `json:"recoveryFactor"`
	VaR95               float64 `json:"var95"`
	CVaR95              float64 `json:"cvar95"`

	TotalTrades          int           `json:"totalTrades"`
	WinningTrades        int           `json:"winningTrades"`
	LosingTrades         int           `json:"losingTrades"`
	WinRate              float64       `json:"winRate"`
	AvgWin               float64       `json:"avgWin"`
	AvgLoss              float64       `json:"avgLoss"`
	AvgWinLossRatio      float64       `json:"avgWinLossRatio"`
	ProfitFactor         float64       `json:"profitFactor"`
	LargestWin           float64       `json:"largestWin"`
	LargestLoss          float64       `json:"largestLoss"`
	GrossProfit          float64       `json:"grossProfit"`
	GrossLoss            float64       `json:"grossLoss"`
	Expectancy           float64       `json:"expectancy"`
	TotalCommission      float64       `json:"totalCommission"`
	AvgTradeDuration     time.Duration `json:"avgTradeDuration"`
	MaxConsecutiveWins   int           `json:"maxConsecutiveWins"`
	MaxConsecutiveLosses int           `json:"maxConsecutiveLosses"`
	KellyCriterion       float64       `json:"kellyCriterion"`

	MonthlyReturns map[string]float64 `json:"monthlyReturns"` // "2006-01"
	YearlyReturns  map[string]float64 `json:"yearlyReturns"`  // "2006"

	HasBenchmark    bool    `json:"hasBenchmark"`
	Beta            float64 `json:"beta"`
	Alpha           float64 `json:"alpha"`
	BenchmarkReturn float64 `json:"benchmarkReturn"` // annualized
}

// Compute builds the report. With no closed trades every field is zero.
func Compute(in Input) PerformanceMetrics {
	m := PerformanceMetrics{
		MonthlyReturns: map[string]float64{},
		YearlyReturns:  map[string]float64{},
	}
	if len(in.Trades) == 0 {
		return m
	}

	initial := in.Config.InitialCapital
	rf := in.Config.RiskFreeRate
	returns := returnsOf(in.Curve)

	m.TotalReturn = (in.Balance - initial) / initial
	m.AnnualizedReturn = annualize(m.TotalReturn, in.Curve)

	tradeStats(&m, in.Trades)

	m.Volatility = stdev(returns) * math.Sqrt(TradingDays)
	m.SharpeRatio = sharpe(returns, rf)
	if dd, ok := downsideDeviation(returns); ok {
		m.SortinoRatio = (mean(returns)*TradingDays - rf) / (dd * math.Sqrt(TradingDays))
	} else {
		m.SortinoRatio = math.Inf(1)
	}

	m.MaxDrawdown = equity.MaxDrawdown(in.Drawdowns)
	m.MaxDrawdownDuration = equity.LongestDays(in.Drawdowns)
	if m.MaxDrawdown > 0 {
		m.CalmarRatio = m.AnnualizedReturn / m.MaxDrawdown
		m.RecoveryFactor = m.NetProfit / (m.MaxDrawdown * initial)
	}
	m.VaR95, m.CVaR95 = tail(returns)

	periodReturns(&m, in.Curve)

	if len(in.Config.BenchmarkReturns) > 0 {
		benchmark(&m, returns, in.Config.BenchmarkReturns, rf)
	}
	return m
}

// annualize compounds total over the calendar span of the curve.
func annualize(total float64, curve []equity.Point) float64 {
	if len(curve) < 2 {
		return 0
	}
	years := curve[len(curve)-1].Date.Sub(curve[0].Date).Hours() / 24 / 365.25
	if years <= 0 {
		return 0
	}
	if total <= -1 {
		return -1
	}
	return math.Pow(1+total, 1/years) - 1
}

func tradeStats(m *PerformanceMetrics, trades []sim.Trade) {
	var sumWin, sumLoss float64
	var held time.Duration
	var winRun, lossRun int

	m.TotalTrades = len(trades)
	for _, t := range trades {
		m.NetProfit += t.PnL
		m.TotalCommission += t.Commission
		held += t.Duration()

		switch {
		case t.PnL > 0:
			m.WinningTrades++
			sumWin += t.PnL
			m.LargestWin = math.Max(m.LargestWin, t.PnL)
			winRun++
			lossRun = 0
		case t.PnL < 0:
			m.LosingTrades++
			sumLoss += t.PnL
			m.LargestLoss = math.Min(m.LargestLoss, t.PnL)
			lossRun++
			winRun = 0
		default:
			winRun, lossRun = 0, 0
		}
		m.MaxConsecutiveWins = max(m.MaxConsecutiveWins, winRun)
		m.MaxConsecutiveLosses = max(m.MaxConsecutiveLosses, lossRun)
	}

	n := float64(m.TotalTrades)
	m.GrossProfit = sumWin
	m.GrossLoss = sumLoss
	m.WinRate = float64(m.WinningTrades) / n
	m.Expectancy = m.NetProfit / n
	m.AvgTradeDuration = held / time.Duration(m.TotalTrades)

	if m.WinningTrades > 0 {
		m.AvgWin = sumWin / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AvgLoss = sumLoss / float64(m.LosingTrades)
		m.ProfitFactor = math.Abs(m.AvgWin / m.AvgLoss)
		m.AvgWinLossRatio = m.AvgWin / math.Abs(m.AvgLoss)
	}
	if b := m.AvgWinLossRatio; b > 0 {
		m.KellyCriterion = (m.WinRate*b - (1 - m.WinRate)) / b
	}
}

// periodReturns compounds each event return into the calendar month and
// year of the point it lands on.
func periodReturns(m *PerformanceMetrics, curve []equity.Point) {
	for i, r := range returnsOf(curve) {
		d := curve[i+1].Date
		month := d.Format("2006-01")
		year := d.Format("2006")
		m.MonthlyReturns[month] = (1+m.MonthlyReturns[month])*(1+r) - 1
		m.YearlyReturns[year] = (1+m.YearlyReturns[year])*(1+r) - 1
	}
}

// benchmark aligns the two series by index and uses the shorter length.
func benchmark(m *PerformanceMetrics, returns, bench []float64, rf float64) {
	n := min(len(returns), len(bench))
	m.HasBenchmark = true
	if n < 2 {
		return
	}
	r, b := returns[:n], bench[:n]

	if sb := stdev(b); sb > 0 {
		m.Beta = correlation(r, b) * (stdev(r) / sb)
	}
	m.BenchmarkReturn = mean(b) * TradingDays
	m.Alpha = m.AnnualizedReturn - (rf + m.Beta*(m.BenchmarkReturn-rf))
}
