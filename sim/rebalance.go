package sim

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rustyeddy/portsim/market"
)

// Advice is one suggested order that would move a symbol's exposure to its
// target weight. Quantity is always positive; Side carries the direction.
type Advice struct {
	Symbol        string
	Side          market.Side
	Quantity      float64
	Price         float64
	TargetWeight  float64
	CurrentWeight float64
}

// OrderRouter executes advice outside the simulator, e.g. against a broker.
type OrderRouter interface {
	Route(ctx context.Context, a Advice) error
}

// Rebalance computes the orders needed to bring every symbol to its target
// weight of account equity (balance plus unrealized P&L). Symbols with open
// exposure but no target are treated as a target of zero.
//
// The simulator's own state is never changed. Each advice is handed to
// router when it is non-nil; the first routing error stops the pass.
func (s *Simulator) Rebalance(ctx context.Context, targets map[string]float64, prices map[string]float64, router OrderRouter) ([]Advice, error) {
	log := s.log

	equity := s.balance + s.UnrealizedPnL(prices)
	if equity <= 0 {
		return nil, fmt.Errorf("rebalance: account equity %.2f is not positive", equity)
	}

	weights := make(map[string]float64, len(targets))
	for sym, w := range targets {
		if w < 0 || math.IsNaN(w) {
			return nil, fmt.Errorf("rebalance: invalid weight %v for %s", w, sym)
		}
		weights[sym] = w
	}
	for _, sym := range s.ledger.Symbols() {
		if _, ok := weights[sym]; !ok {
			weights[sym] = 0
		}
	}

	syms := make([]string, 0, len(weights))
	for sym := range weights {
		syms = append(syms, sym)
	}
	sort.Strings(syms)

	var out []Advice
	for _, sym := range syms {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		price, ok := prices[sym]
		if !ok || price <= 0 {
			log.Warn("rebalance skipped symbol without price", "symbol", sym)
			continue
		}

		current := s.netQuantity(sym)
		target := equity * weights[sym] / price
		delta := target - current
		if math.Abs(delta) <= quantityEpsilon*math.Max(1, math.Abs(target)) {
			continue
		}

		a := Advice{
			Symbol:        sym,
			Side:          market.Buy,
			Quantity:      math.Abs(delta),
			Price:         price,
			TargetWeight:  weights[sym],
			CurrentWeight: current * price / equity,
		}
		if delta < 0 {
			a.Side = market.Sell
		}

		log.Info("rebalance advice",
			"symbol", a.Symbol, "side", a.Side, "qty", a.Quantity,
			"price", a.Price, "current", a.CurrentWeight, "target", a.TargetWeight)

		if router != nil {
			if err := router.Route(ctx, a); err != nil {
				return out, fmt.Errorf("route %s %s: %w", a.Side, a.Symbol, err)
			}
		}
		out = append(out, a)
	}
	return out, nil
}

// netQuantity is the signed open quantity for symbol: long minus short.
func (s *Simulator) netQuantity(symbol string) float64 {
	var q float64
	for _, t := range s.ledger.Open(symbol) {
		q += t.Quantity * t.Side.Sign()
	}
	return q
}
