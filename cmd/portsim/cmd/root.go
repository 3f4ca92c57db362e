package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rustyeddy/portsim/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "portsim",
	Short: "Portfolio simulation and risk analytics",
	Long: `Portsim replays trading signals against a simulated account and reports
risk-adjusted performance.

It provides tools for:
  - Backtesting signal feeds with slippage and commission
  - Performance metrics (Sharpe, Sortino, Calmar, VaR, Kelly)
  - Rolling window metrics
  - Monte Carlo projection of terminal balances
  - Trade and equity journals in CSV or SQLite

Environment variables are read from .env when present. Set DEBUG_TOPICS
(e.g. "sim,backtest" or "all") to enable debug logs.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// a missing .env is fine
		_ = godotenv.Load()
		logging.Configure(os.Getenv("DEBUG_TOPICS"))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
