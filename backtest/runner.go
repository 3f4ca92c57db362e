// Package backtest drives a simulator from a feed of priced frames and
// signals.
package backtest

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/portsim/internal/logging"
	"github.com/rustyeddy/portsim/market"
	"github.com/rustyeddy/portsim/risk"
	"github.com/rustyeddy/portsim/sim"
)

// Close reasons recorded in the journal.
const (
	ReasonSignal     = "signal"
	ReasonStopLoss   = "stop_loss"
	ReasonTakeProfit = "take_profit"
	ReasonMarginCall = "margin_call"
	ReasonEnd        = "end_of_data"
)

// Options controls how the runner behaves.
type Options struct {
	// If true, close all open positions at the last seen prices when the
	// feed is exhausted.
	CloseEnd bool

	// MinRewardRisk skips signals that carry both a stop and a target whose
	// reward/risk at the frame's close is below this value. Zero disables.
	MinRewardRisk float64
}

// RewardRiskTooLow counts signals skipped by Options.MinRewardRisk.
const RewardRiskTooLow sim.Reason = "REWARD_RISK_TOO_LOW"

// Runner drives a simulator forward using a feed.
type Runner struct {
	Sim     *sim.Simulator
	Feed    Feed
	Options Options
}

// Result is a lightweight summary of a run; the full report comes from the
// metrics package.
type Result struct {
	Balance    float64
	Trades     int
	Wins       int
	Losses     int
	Frames     int
	Signals    int
	Rejected   map[sim.Reason]int
	MarginCall bool

	Start time.Time
	End   time.Time
}

// Run executes the loop:
//  1. read the next event and record its close price
//  2. check risk limits; close stop/target hits at their level, and on a
//     margin call close everything and stop
//  3. on a signal, close open trades on the opposite side and open a new one
//     at the frame's close
//
// Structural rejections are counted, not returned. The error is set for feed
// failures, journal failures and cancellation.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if r.Sim == nil {
		return Result{}, fmt.Errorf("backtest: Sim is required")
	}
	if r.Feed == nil {
		return Result{}, fmt.Errorf("backtest: Feed is required")
	}
	defer r.Feed.Close()

	log := logging.New("backtest")
	prices := market.NewPriceBook()
	res := Result{Rejected: map[sim.Reason]int{}}

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		ev, ok, err := r.Feed.Next()
		if err != nil {
			return res, err
		}
		if !ok {
			break
		}

		f := ev.Frame
		if res.Start.IsZero() || f.Time.Before(res.Start) {
			res.Start = f.Time
		}
		if res.End.IsZero() || f.Time.After(res.End) {
			res.End = f.Time
		}
		res.Frames++
		prices.Set(f)

		stop, err := r.applyLimits(prices.Snapshot(), f.Time, &res)
		if err != nil {
			return res, err
		}
		if stop {
			log.Info("margin call, run stopped", "time", f.Time, "balance", r.Sim.Balance())
			break
		}

		if ev.Signal != nil {
			res.Signals++
			if err := r.applySignal(*ev.Signal, f, &res); err != nil {
				return res, err
			}
		}
	}

	if r.Options.CloseEnd && !res.MarginCall {
		if _, err := r.Sim.CloseAll(prices.Snapshot(), prices.Latest(), ReasonEnd); err != nil {
			return res, err
		}
	}

	res.Balance = r.Sim.Balance()
	for _, t := range r.Sim.ClosedTrades() {
		res.Trades++
		switch {
		case t.PnL > 0:
			res.Wins++
		case t.PnL < 0:
			res.Losses++
		}
	}

	log.Info("run complete",
		"frames", res.Frames, "signals", res.Signals, "trades", res.Trades,
		"balance", res.Balance, "start", res.Start, "end", res.End)

	return res, nil
}

// applyLimits acts on the risk report. It returns true after a margin call.
func (r *Runner) applyLimits(prices map[string]float64, at time.Time, res *Result) (bool, error) {
	report := r.Sim.CheckRiskLimits(prices)

	if report.MarginCall {
		res.MarginCall = true
		_, err := r.Sim.CloseAll(prices, at, ReasonMarginCall)
		return true, err
	}

	closed := map[string]bool{}
	for _, tr := range report.StopLossTriggered {
		if _, err := r.Sim.CloseTrade(tr.ID, stopFill(tr), at, ReasonStopLoss); err != nil {
			return false, err
		}
		closed[tr.ID] = true
	}
	for _, tr := range report.TakeProfitTriggered {
		if closed[tr.ID] {
			continue
		}
		if _, err := r.Sim.CloseTrade(tr.ID, tr.TakeProfit, at, ReasonTakeProfit); err != nil {
			return false, err
		}
	}
	return false, nil
}

// stopFill is the stop level, or the mark when the bar gapped through it.
func stopFill(tr risk.Trigger) float64 {
	if tr.Side == market.Buy {
		return math.Min(tr.Price, tr.StopLoss)
	}
	return math.Max(tr.Price, tr.StopLoss)
}

func (r *Runner) applySignal(sig market.Signal, f market.Frame, res *Result) error {
	for _, t := range r.Sim.OpenPositions(sig.Symbol) {
		if t.Side != sig.Type.Opposite() {
			continue
		}
		if _, err := r.Sim.CloseTrade(t.ID, f.Close, f.Time, ReasonSignal); err != nil {
			return err
		}
	}

	if floor := r.Options.MinRewardRisk; floor > 0 && sig.StopLoss > 0 && sig.TakeProfit > 0 {
		if rr := risk.RewardRisk(f.Close, sig.StopLoss, sig.TakeProfit); rr < floor {
			logging.New("backtest").Debug("signal skipped", "symbol", sig.Symbol, "time", f.Time, "rr", rr, "min", floor)
			res.Rejected[RewardRiskTooLow]++
			return nil
		}
	}

	out := r.Sim.OpenPosition(sim.OpenRequest{
		Symbol:     sig.Symbol,
		Side:       sig.Type,
		Price:      f.Close,
		Time:       f.Time,
		Quantity:   sig.Quantity,
		StopLoss:   sig.StopLoss,
		TakeProfit: sig.TakeProfit,
	})
	if !out.Accepted {
		res.Rejected[out.Reason]++
	}
	return nil
}
