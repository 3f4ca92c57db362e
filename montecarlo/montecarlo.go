// Package montecarlo projects a distribution of terminal balances from the
// per-trade returns of a simulation.
package montecarlo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/rustyeddy/portsim/config"
	"github.com/rustyeddy/portsim/internal/logging"
	"github.com/rustyeddy/portsim/sim"
)

type Mode string

const (
	// Bootstrap resamples the historical returns with replacement.
	Bootstrap Mode = "bootstrap"

	// Replay applies the historical returns in order on every iteration, so
	// all iterations end at the same balance.
	Replay Mode = "replay"
)

// DefaultFraction is the share of balance committed to each trade when
// Options.Fraction is zero.
const DefaultFraction = 0.1

// Levels are the percentiles reported in Result.Percentiles.
var Levels = []int{5, 10, 25, 50, 75, 90, 95}

var ErrNoIterations = errors.New("montecarlo: iterations must be positive")

type Options struct {
	Iterations int
	Fraction   float64
	Seed       uint64
	Mode       Mode // empty means Bootstrap
}

type Result struct {
	FinalValues         []float64 // sorted ascending
	Percentiles         map[int]float64
	ProbabilityOfProfit float64
	WorstCase           float64
	BestCase            float64
	Mean                float64
	Blown               int // iterations that ended at zero
}

// Returns converts closed trades to per-trade returns: net P&L over entry
// notional.
func Returns(trades []sim.Trade) []float64 {
	out := make([]float64, 0, len(trades))
	for _, t := range trades {
		out = append(out, t.Return())
	}
	return out
}

// Simulate runs opts.Iterations paths starting from initialCapital. Each step
// moves Fraction of the current balance by one return; a path stops early
// once the balance reaches zero. ctx is checked between iterations.
func Simulate(ctx context.Context, initialCapital float64, returns []float64, opts Options) (Result, error) {
	log := logging.New("montecarlo")

	if opts.Iterations <= 0 {
		return Result{}, ErrNoIterations
	}
	if opts.Iterations > config.MaxMonteCarloIterations {
		return Result{}, fmt.Errorf("montecarlo: %d iterations exceeds limit of %d", opts.Iterations, config.MaxMonteCarloIterations)
	}
	if opts.Fraction == 0 {
		opts.Fraction = DefaultFraction
	}
	if opts.Fraction < 0 || opts.Fraction > 1 {
		return Result{}, fmt.Errorf("montecarlo: fraction %v outside (0, 1]", opts.Fraction)
	}
	if opts.Mode == "" {
		opts.Mode = Bootstrap
	}
	if opts.Mode != Bootstrap && opts.Mode != Replay {
		return Result{}, fmt.Errorf("montecarlo: unknown mode %q", opts.Mode)
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	finals := make([]float64, opts.Iterations)
	var blown int

	for i := range finals {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		balance := initialCapital
		for k := range returns {
			r := returns[k]
			if opts.Mode == Bootstrap {
				r = returns[rng.IntN(len(returns))]
			}
			balance += balance * opts.Fraction * r
			if balance <= 0 {
				balance = 0
				blown++
				break
			}
		}
		finals[i] = balance
	}

	res := summarize(finals, initialCapital)
	res.Blown = blown

	log.Debug("simulation done",
		"mode", opts.Mode, "iterations", opts.Iterations, "trades", len(returns),
		"p50", res.Percentiles[50], "pop", res.ProbabilityOfProfit, "blown", blown)

	return res, nil
}

func summarize(finals []float64, initialCapital float64) Result {
	sort.Float64s(finals)
	n := len(finals)

	res := Result{
		FinalValues: finals,
		Percentiles: make(map[int]float64, len(Levels)),
		WorstCase:   finals[0],
		BestCase:    finals[n-1],
	}
	for _, p := range Levels {
		res.Percentiles[p] = percentile(finals, p)
	}

	var profitable int
	var sum float64
	for _, v := range finals {
		if v > initialCapital {
			profitable++
		}
		sum += v
	}
	res.ProbabilityOfProfit = float64(profitable) / float64(n)
	res.Mean = sum / float64(n)
	return res
}

// percentile reads index floor(p/100*n) of sorted, clamped to the last
// element.
func percentile(sorted []float64, p int) float64 {
	idx := int(math.Floor(float64(p) / 100 * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
