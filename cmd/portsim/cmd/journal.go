package cmd

import (
	"fmt"
	"time"

	"github.com/rustyeddy/portsim/journal"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query a simulation journal",
	Long: `Query trade and equity records written by "portsim run --db".

Subcommands:
  trade   - Show one trade by ID
  day     - List trades closed on a specific day
  equity  - List equity snapshots between two days

Examples:
  portsim journal trade 01J9Z3K6W8B1X2Y3Z4A5B6C7D8
  portsim journal day 2024-01-15
  portsim journal equity 2024-01-01 2024-02-01`,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Show details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades closed on a specific day (UTC)",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalEquityCmd = &cobra.Command{
	Use:   "equity <from YYYY-MM-DD> <to YYYY-MM-DD>",
	Short: "List equity snapshots in [from, to) (UTC)",
	Args:  cobra.ExactArgs(2),
	RunE:  runJournalEquity,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalDayCmd)
	journalCmd.AddCommand(journalEquityCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./portsim.sqlite", "path to SQLite journal DB")
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	rec, err := j.GetTrade(args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradeOrg(rec))
	return nil
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	start, end, err := dayBounds(time.UTC, args[0])
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	recs, err := j.ListTradesClosedBetween(start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradesOrg(recs))
	return nil
}

func runJournalEquity(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	start, _, err := dayBounds(time.UTC, args[0])
	if err != nil {
		return fmt.Errorf("from: %w", err)
	}
	end, _, err := dayBounds(time.UTC, args[1])
	if err != nil {
		return fmt.Errorf("to: %w", err)
	}

	snaps, err := j.ListEquityBetween(start, end)
	if err != nil {
		return fmt.Errorf("query equity: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "| time | balance | peak | return | drawdown |")
	fmt.Fprintln(out, "|------+---------+------+--------+----------|")
	for _, e := range snaps {
		fmt.Fprintf(out, "| %s | %.2f | %.2f | %.4f | %.4f |\n",
			e.Time.UTC().Format(time.RFC3339), e.Balance, e.Peak, e.Return, e.Drawdown)
	}
	return nil
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := start.Add(24 * time.Hour)
	return start, end, nil
}
