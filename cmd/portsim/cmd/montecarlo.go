package cmd

import (
	"fmt"

	"github.com/rustyeddy/portsim/config"
	"github.com/rustyeddy/portsim/journal"
	"github.com/rustyeddy/portsim/montecarlo"
	"github.com/rustyeddy/portsim/report"
	"github.com/spf13/cobra"
)

var monteCarloCmd = &cobra.Command{
	Use:     "montecarlo",
	Aliases: []string{"mc"},
	Short:   "Project terminal balances from a backtest's trade returns",
	Long: `Run a backtest, then resample its per-trade returns to project a
distribution of terminal balances.

Modes:
  bootstrap - draw returns with replacement (default)
  replay    - apply the historical sequence on every path

Example:
  portsim montecarlo -c sim.yaml --feed data/btc.csv --iterations 5000 --seed 42`,
	RunE: runMonteCarlo,
}

var (
	mcIterations int
	mcSeed       uint64
	mcMode       string
	mcFraction   float64
)

func init() {
	rootCmd.AddCommand(monteCarloCmd)

	addRunFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVarP(&mcIterations, "iterations", "n", 0, "number of paths (default from config)")
	monteCarloCmd.Flags().Uint64Var(&mcSeed, "seed", 0, "random seed (default from config)")
	monteCarloCmd.Flags().StringVar(&mcMode, "mode", "", "bootstrap or replay (default from config)")
	monteCarloCmd.Flags().Float64Var(&mcFraction, "fraction", 0, "share of balance moved per trade (default from config)")
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	s, _, err := runBacktest(cmd.Context(), cfg, journal.Nop{})
	if err != nil {
		return err
	}

	opts := montecarlo.Options{
		Iterations: cfg.Simulator.MonteCarloIterations,
		Fraction:   cfg.MonteCarlo.Fraction,
		Seed:       cfg.MonteCarlo.Seed,
		Mode:       montecarlo.Mode(cfg.MonteCarlo.Mode),
	}
	flags := cmd.Flags()
	if flags.Changed("iterations") {
		opts.Iterations = mcIterations
	}
	if flags.Changed("seed") {
		opts.Seed = mcSeed
	}
	if flags.Changed("mode") {
		opts.Mode = montecarlo.Mode(mcMode)
	}
	if flags.Changed("fraction") {
		opts.Fraction = mcFraction
	}

	returns := montecarlo.Returns(s.ClosedTrades())
	if len(returns) == 0 {
		return fmt.Errorf("backtest produced no closed trades")
	}

	res, err := montecarlo.Simulate(cmd.Context(), cfg.Simulator.InitialCapital, returns, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Monte Carlo: %d paths over %d trades (seed %d)\n", opts.Iterations, len(returns), opts.Seed)
	fmt.Fprintf(out, "  Initial Capital:   %s\n", report.Money(cfg.Simulator.InitialCapital))
	for _, p := range montecarlo.Levels {
		fmt.Fprintf(out, "  P%-2d               %s\n", p, report.Money(res.Percentiles[p]))
	}
	fmt.Fprintf(out, "  Mean:              %s\n", report.Money(res.Mean))
	fmt.Fprintf(out, "  Worst Case:        %s\n", report.Money(res.WorstCase))
	fmt.Fprintf(out, "  Best Case:         %s\n", report.Money(res.BestCase))
	fmt.Fprintf(out, "  Prob. of Profit:   %s\n", report.Pct(res.ProbabilityOfProfit))
	if res.Blown > 0 {
		fmt.Fprintf(out, "  Blown Paths:       %d\n", res.Blown)
	}
	return nil
}
