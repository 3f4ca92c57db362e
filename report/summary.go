package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/rustyeddy/portsim/metrics"
	"github.com/shopspring/decimal"
)

// Summary is everything the text and org reports print.
type Summary struct {
	RunID          string
	Created        time.Time
	Dataset        string
	Start          time.Time
	End            time.Time
	InitialCapital float64
	FinalBalance   float64
	Metrics        metrics.PerformanceMetrics
	Notes          []string
}

const rule = "--------------------------------------------------"

// WriteSummary prints the sectioned plain-text report. The benchmark section
// only appears when benchmark returns were configured.
func WriteSummary(w io.Writer, s Summary) error {
	m := s.Metrics
	p := &printer{w: w}

	p.line("==================================================")
	p.line(" Portfolio Simulation Report")
	p.line("==================================================")
	if s.RunID != "" {
		p.printf("Run ID:            %s\n", s.RunID)
	}
	if s.Dataset != "" {
		p.printf("Dataset:           %s\n", s.Dataset)
	}
	if !s.Start.IsZero() {
		p.printf("Period:            %s to %s\n", s.Start.Format(time.RFC3339), s.End.Format(time.RFC3339))
	}

	p.section("BASIC METRICS")
	p.printf("Initial Capital:   %s\n", Money(s.InitialCapital))
	p.printf("Final Balance:     %s\n", Money(s.FinalBalance))
	p.printf("Net Profit:        %s\n", Money(m.NetProfit))
	p.printf("Total Return:      %s\n", Pct(m.TotalReturn))
	p.printf("Annualized Return: %s\n", Pct(m.AnnualizedReturn))
	p.printf("Total Trades:      %d\n", m.TotalTrades)
	p.printf("Win Rate:          %s\n", Pct(m.WinRate))

	p.section("RISK METRICS")
	p.printf("Volatility:        %s\n", Pct(m.Volatility))
	p.printf("Sharpe Ratio:      %s\n", ratio(m.SharpeRatio))
	p.printf("Sortino Ratio:     %s\n", ratio(m.SortinoRatio))
	p.printf("Calmar Ratio:      %s\n", ratio(m.CalmarRatio))
	p.printf("Max Drawdown:      %s\n", Pct(m.MaxDrawdown))
	p.printf("Max DD Duration:   %.1f days\n", m.MaxDrawdownDuration)
	p.printf("Recovery Factor:   %s\n", ratio(m.RecoveryFactor))
	p.printf("VaR (95%%):         %s\n", Pct(m.VaR95))
	p.printf("CVaR (95%%):        %s\n", Pct(m.CVaR95))
	p.printf("Kelly Criterion:   %s\n", Pct(m.KellyCriterion))

	p.section("TRADE ANALYSIS")
	p.printf("Winning Trades:    %d\n", m.WinningTrades)
	p.printf("Losing Trades:     %d\n", m.LosingTrades)
	p.printf("Average Win:       %s\n", Money(m.AvgWin))
	p.printf("Average Loss:      %s\n", Money(m.AvgLoss))
	p.printf("Largest Win:       %s\n", Money(m.LargestWin))
	p.printf("Largest Loss:      %s\n", Money(m.LargestLoss))
	p.printf("Profit Factor:     %s\n", ratio(m.ProfitFactor))
	p.printf("Expectancy:        %s\n", Money(m.Expectancy))
	p.printf("Total Commission:  %s\n", Money(m.TotalCommission))
	p.printf("Avg Duration:      %s\n", m.AvgTradeDuration.Round(time.Minute))
	p.printf("Max Consec. Wins:  %d\n", m.MaxConsecutiveWins)
	p.printf("Max Consec. Losses: %d\n", m.MaxConsecutiveLosses)

	if len(m.MonthlyReturns) > 0 {
		p.line("")
		p.line("Monthly Returns")
		for _, k := range sortedKeys(m.MonthlyReturns) {
			p.printf("  %s          %s\n", k, Pct(m.MonthlyReturns[k]))
		}
	}

	if m.HasBenchmark {
		p.section("BENCHMARK COMPARISON")
		p.printf("Benchmark Return:  %s\n", Pct(m.BenchmarkReturn))
		p.printf("Beta:              %s\n", ratio(m.Beta))
		p.printf("Alpha:             %s\n", Pct(m.Alpha))
	}

	if len(s.Notes) > 0 {
		p.section("NOTES")
		for _, n := range s.Notes {
			p.printf("- %s\n", n)
		}
	}
	p.line("")
	return p.err
}

// Money renders a cash amount with two decimals, rounded half away from zero.
func Money(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return fmt.Sprint(x)
	}
	return decimal.NewFromFloat(x).StringFixed(2)
}

// Pct renders a fraction as a percentage with two decimals.
func Pct(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return fmt.Sprint(x)
	}
	return decimal.NewFromFloat(x).Shift(2).StringFixed(2) + "%"
}

func ratio(x float64) string {
	if math.IsInf(x, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", x)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// printer remembers the first write error so the report body stays flat.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) line(s string) {
	p.printf("%s\n", s)
}

func (p *printer) section(title string) {
	p.line("")
	p.line(title)
	p.line(rule)
}
