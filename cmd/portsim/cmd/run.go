package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rustyeddy/portsim/backtest"
	"github.com/rustyeddy/portsim/config"
	"github.com/rustyeddy/portsim/internal/id"
	"github.com/rustyeddy/portsim/journal"
	"github.com/rustyeddy/portsim/metrics"
	"github.com/rustyeddy/portsim/report"
	"github.com/rustyeddy/portsim/sim"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Backtest a signal feed and print the performance report",
	Long: `Run a backtest over a CSV feed of priced frames and signals.

Feed rows are:
  time,symbol,open,high,low,close[,signal,stop,take[,quantity]]

Signals execute at the frame's close. Stop-loss and take-profit levels are
checked on every frame and a margin call ends the run.

Example:
  portsim run -c sim.yaml --feed data/btc.csv --trades trades.csv --equity equity.csv`,
	RunE: runRun,
}

var (
	runConfigPath string
	runFeedPath   string
	runFrom       string
	runTo         string
	runTrades     string
	runEquity     string
	runRolling    string
	runOrg        string
	runDB         string
	runQuiet      bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	addRunFlags(runCmd)
	runCmd.Flags().StringVar(&runTrades, "trades", "", "write the trade export CSV here")
	runCmd.Flags().StringVar(&runEquity, "equity", "", "write the equity curve CSV here")
	runCmd.Flags().StringVar(&runRolling, "rolling", "", "write rolling window metrics CSV here")
	runCmd.Flags().StringVar(&runOrg, "org", "", "write an org-mode run report here")
	runCmd.Flags().StringVar(&runDB, "db", "", "journal closes to this SQLite file (overrides config)")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "do not print the summary")
}

// addRunFlags registers the flags shared by commands that run a backtest.
func addRunFlags(c *cobra.Command) {
	c.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to config file (YAML or JSON); defaults when empty")
	c.Flags().StringVar(&runFeedPath, "feed", "", "path to the CSV feed (overrides config)")
	c.Flags().StringVar(&runFrom, "from", "", "skip frames before this RFC3339 time")
	c.Flags().StringVar(&runTo, "to", "", "skip frames at or after this RFC3339 time")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if runDB != "" {
		cfg.Journal.Type = "sqlite"
		cfg.Journal.DBPath = runDB
	}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer j.Close()

	s, res, err := runBacktest(cmd.Context(), cfg, j)
	if err != nil {
		return err
	}

	in := metrics.FromSimulator(s)
	m := metrics.Compute(in)

	if err := writeFile(runTrades, func(w io.Writer) error {
		return report.WriteTradesCSV(w, s.ClosedTrades())
	}); err != nil {
		return err
	}
	if err := writeFile(runEquity, func(w io.Writer) error {
		return report.WriteEquityCSV(w, s.EquityCurve())
	}); err != nil {
		return err
	}
	if err := writeFile(runRolling, func(w io.Writer) error {
		return report.WriteRollingCSV(w, metrics.Rolling(in, cfg.Simulator.RollingWindowSize))
	}); err != nil {
		return err
	}

	summary := report.Summary{
		RunID:          id.New(time.Now()),
		Created:        time.Now(),
		Dataset:        filepath.Base(cfg.Backtest.FeedPath),
		Start:          res.Start,
		End:            res.End,
		InitialCapital: cfg.Simulator.InitialCapital,
		FinalBalance:   res.Balance,
		Metrics:        m,
		Notes:          runNotes(res),
	}
	if runOrg != "" {
		if err := report.WriteOrgFile(runOrg, summary); err != nil {
			return err
		}
	}
	if !runQuiet {
		if err := report.WriteSummary(cmd.OutOrStdout(), summary); err != nil {
			return err
		}
	}
	return nil
}

// runBacktest loads the feed named by the flags or config and drives a new
// simulator through it.
func runBacktest(ctx context.Context, cfg *config.Config, j journal.Journal) (*sim.Simulator, backtest.Result, error) {
	if runFeedPath != "" {
		cfg.Backtest.FeedPath = runFeedPath
	}
	if cfg.Backtest.FeedPath == "" {
		return nil, backtest.Result{}, fmt.Errorf("no feed: pass --feed or set backtest.feed_path")
	}

	from, err := parseBound(runFrom)
	if err != nil {
		return nil, backtest.Result{}, fmt.Errorf("--from: %w", err)
	}
	to, err := parseBound(runTo)
	if err != nil {
		return nil, backtest.Result{}, fmt.Errorf("--to: %w", err)
	}

	feed, err := backtest.NewCSVFeed(cfg.Backtest.FeedPath, from, to)
	if err != nil {
		return nil, backtest.Result{}, err
	}

	s, err := sim.New(cfg.Simulator, sim.WithJournal(j), sim.WithSizer(cfg.Sizing))
	if err != nil {
		_ = feed.Close()
		return nil, backtest.Result{}, err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	r := &backtest.Runner{Sim: s, Feed: feed, Options: backtest.Options{
		CloseEnd:      cfg.Backtest.CloseEnd,
		MinRewardRisk: cfg.Backtest.MinRewardRisk,
	}}
	res, err := r.Run(ctx)
	if err != nil {
		return nil, res, fmt.Errorf("backtest: %w", err)
	}
	return s, res, nil
}

func openJournal(cfg config.JournalConfig) (journal.Journal, error) {
	switch cfg.Type {
	case "csv":
		return journal.NewCSV(cfg.TradesFile, cfg.EquityFile)
	case "sqlite":
		return journal.NewSQLite(cfg.DBPath)
	default:
		return journal.Nop{}, nil
	}
}

func parseBound(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// writeFile creates path and hands it to fn. An empty path is a no-op.
func writeFile(path string, fn func(io.Writer) error) error {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func runNotes(res backtest.Result) []string {
	var notes []string
	if res.MarginCall {
		notes = append(notes, "run stopped by margin call")
	}
	reasons := make([]string, 0, len(res.Rejected))
	for reason := range res.Rejected {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		notes = append(notes, fmt.Sprintf("%d orders rejected: %s", res.Rejected[sim.Reason(reason)], reason))
	}
	return notes
}
