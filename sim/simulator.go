// Package sim is the bookkeeping core of a simulated trading account: it
// fills orders with slippage and commission, keeps the FIFO position ledger
// and feeds the equity curve on every close.
//
// A Simulator models one account and must be owned by a single run. It does
// no locking; callers that mutate it from several goroutines must serialize
// access themselves.
package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/portsim/config"
	"github.com/rustyeddy/portsim/equity"
	"github.com/rustyeddy/portsim/internal/id"
	"github.com/rustyeddy/portsim/internal/logging"
	"github.com/rustyeddy/portsim/journal"
	"github.com/rustyeddy/portsim/market"
	"github.com/rustyeddy/portsim/risk"
)

// quantityEpsilon absorbs float drift when a close request matches the
// remaining quantity.
const quantityEpsilon = 1e-9

type Simulator struct {
	cfg     config.SimulatorConfig
	sizer   risk.Sizer
	ledger  *Ledger
	curve   *equity.Curve
	journal journal.Journal
	log     *logging.Logger

	balance          float64
	entryCommissions float64
	realizedPnL      float64
}

type Option func(*Simulator)

// WithJournal records every close and equity update to j.
func WithJournal(j journal.Journal) Option {
	return func(s *Simulator) {
		if j != nil {
			s.journal = j
		}
	}
}

// WithSizer sets the initial sizing policy.
func WithSizer(z risk.Sizer) Option {
	return func(s *Simulator) {
		if z != nil {
			s.sizer = z
		}
	}
}

// New builds a simulator for one run. The config is copied and never
// changes afterwards.
func New(cfg config.SimulatorConfig, opts ...Option) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new simulator: %w", err)
	}
	cfg.BenchmarkReturns = append([]float64(nil), cfg.BenchmarkReturns...)

	s := &Simulator{
		cfg:     cfg,
		sizer:   risk.SizingPolicy{Type: risk.Percentage, Value: 10},
		ledger:  NewLedger(),
		curve:   equity.NewCurve(cfg.InitialCapital),
		journal: journal.Nop{},
		log:     logging.New("sim"),
		balance: cfg.InitialCapital,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SetSizing replaces the sizing policy; only later opens are affected.
func (s *Simulator) SetSizing(z risk.Sizer) {
	if z != nil {
		s.sizer = z
	}
}

// OpenPosition fills req and appends the trade to the symbol's FIFO queue.
// The entry commission is charged immediately. Rejections are reported in
// the result, never as errors.
func (s *Simulator) OpenPosition(req OpenRequest) OpenResult {
	if req.Symbol == "" || !req.Side.Valid() || req.Price <= 0 || req.Quantity < 0 {
		return s.reject(req, InvalidOrder)
	}
	if s.ledger.Count(req.Symbol) >= s.cfg.MaxPositionsPerSymbol {
		return s.reject(req, PositionLimitExceeded)
	}

	qty := req.Quantity
	if qty == 0 {
		qty = s.sizer.Size(req.Symbol, req.Price, s.balance, s.ledger.PnLHistory())
	}
	if qty <= 0 || math.IsNaN(qty) || math.IsInf(qty, 0) {
		return s.reject(req, InvalidQuantity)
	}

	fill := s.entryFill(req.Side, req.Price)
	notional := fill * qty
	commission := notional * s.cfg.CommissionRate
	if notional+commission > s.balance {
		return s.reject(req, InsufficientFunds)
	}

	s.balance -= commission
	s.entryCommissions += commission
	if !s.curve.Seeded() {
		s.curve.Seed(req.Time, s.cfg.InitialCapital)
	}

	t := &Trade{
		ID:         id.New(req.Time),
		Symbol:     req.Symbol,
		Side:       req.Side,
		EntryTime:  req.Time,
		EntryPrice: fill,
		Quantity:   qty,
		Commission: commission,
		Status:     Open,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
	}
	s.ledger.push(t)

	s.log.Debug("opened position",
		"id", t.ID, "symbol", t.Symbol, "side", t.Side, "qty", qty,
		"fill", fill, "commission", commission, "balance", s.balance)

	return OpenResult{Accepted: true, Trade: *t}
}

func (s *Simulator) reject(req OpenRequest, reason Reason) OpenResult {
	s.log.Debug("open rejected", "symbol", req.Symbol, "side", req.Side, "price", req.Price, "reason", reason)
	return OpenResult{Reason: reason}
}

// ClosePosition closes (part of) the oldest open trade for req.Symbol.
// The returned error is only set when the journal fails; the close itself
// has already been applied in that case.
func (s *Simulator) ClosePosition(req CloseRequest) (CloseResult, error) {
	t, ok := s.ledger.front(req.Symbol)
	if !ok {
		s.log.Debug("close rejected", "symbol", req.Symbol, "reason", NoOpenPosition)
		return CloseResult{Reason: NoOpenPosition}, nil
	}
	return s.close(t, req.Price, req.Time, req.Quantity, "signal")
}

// CloseTrade fully closes the open trade with the given id, regardless of
// its place in the FIFO queue. The orchestrator uses it for stop-loss and
// take-profit exits.
func (s *Simulator) CloseTrade(tradeID string, price float64, at time.Time, reason string) (CloseResult, error) {
	t, ok := s.ledger.find(tradeID)
	if !ok {
		return CloseResult{Reason: NoOpenPosition}, nil
	}
	return s.close(t, price, at, 0, reason)
}

// CloseAll closes every open trade at its symbol's price. Symbols missing
// from prices are left open and reported in the error.
func (s *Simulator) CloseAll(prices map[string]float64, at time.Time, reason string) ([]Trade, error) {
	var closed []Trade
	var missing []string
	for _, sym := range s.ledger.Symbols() {
		price, ok := prices[sym]
		if !ok {
			missing = append(missing, sym)
			continue
		}
		for s.ledger.Count(sym) > 0 {
			t, _ := s.ledger.front(sym)
			res, err := s.close(t, price, at, 0, reason)
			if err != nil {
				return closed, err
			}
			closed = append(closed, res.Trade)
		}
	}
	if len(missing) > 0 {
		return closed, fmt.Errorf("close all: no price for %v", missing)
	}
	return closed, nil
}

func (s *Simulator) close(t *Trade, price float64, at time.Time, qty float64, reason string) (CloseResult, error) {
	if !(price > 0) || math.IsInf(price, 0) || !(qty >= 0) || math.IsInf(qty, 0) {
		return CloseResult{Reason: InvalidOrder}, nil
	}
	if qty == 0 || math.Abs(qty-t.Quantity) <= quantityEpsilon*math.Max(1, t.Quantity) {
		qty = t.Quantity
	}
	if qty > t.Quantity {
		s.log.Debug("close rejected", "id", t.ID, "requested", qty, "open", t.Quantity, "reason", OverClose)
		return CloseResult{Reason: OverClose}, nil
	}

	fill := s.exitFill(t.Side, price)
	gross := (fill - t.EntryPrice) * qty * t.Side.Sign()
	exitCommission := fill * qty * s.cfg.CommissionRate
	net := gross - exitCommission
	entryShare := t.Commission * qty / t.Quantity

	full := qty == t.Quantity
	rec := *t
	rec.Quantity = qty
	rec.Commission = entryShare + exitCommission
	rec.Status = Closed
	rec.ExitTime = at
	rec.ExitPrice = fill
	rec.PnL = net
	if !full || t.fills > 0 {
		rec.ID = id.Fill(t.ID, t.fills+1)
	}
	rec.fills = 0

	if full {
		s.ledger.remove(t)
	} else {
		t.Quantity -= qty
		t.Commission -= entryShare
		t.fills++
	}
	s.ledger.record(rec)

	s.balance += net
	s.realizedPnL += net
	ret := s.curve.Update(at, s.balance)

	s.log.Debug("closed position",
		"id", rec.ID, "symbol", rec.Symbol, "qty", qty, "fill", fill,
		"pnl", net, "balance", s.balance, "reason", reason)

	if err := s.journal.RecordTrade(journal.TradeRecord{
		TradeID:    rec.ID,
		Symbol:     rec.Symbol,
		Side:       string(rec.Side),
		Quantity:   rec.Quantity,
		EntryPrice: rec.EntryPrice,
		ExitPrice:  rec.ExitPrice,
		OpenTime:   rec.EntryTime,
		CloseTime:  rec.ExitTime,
		PnL:        rec.PnL,
		Commission: rec.Commission,
		Reason:     reason,
	}); err != nil {
		return CloseResult{Closed: true, Trade: rec}, fmt.Errorf("journal trade %s: %w", rec.ID, err)
	}

	last, _ := s.curve.Last()
	peak := s.curve.MaxBalance()
	if err := s.journal.RecordEquity(journal.EquitySnapshot{
		Time:     last.Date,
		Balance:  s.balance,
		Peak:     peak,
		Return:   ret,
		Drawdown: equity.Series([]float64{s.balance}, peak)[0],
	}); err != nil {
		return CloseResult{Closed: true, Trade: rec}, fmt.Errorf("journal equity: %w", err)
	}

	return CloseResult{Closed: true, Trade: rec}, nil
}

// entryFill applies slippage against the taker: buys pay more, sells get less.
func (s *Simulator) entryFill(side market.Side, price float64) float64 {
	if side == market.Buy {
		return price * (1 + s.cfg.SlippageRate)
	}
	return price * (1 - s.cfg.SlippageRate)
}

// exitFill applies slippage against the position being closed.
func (s *Simulator) exitFill(side market.Side, price float64) float64 {
	if side == market.Buy {
		return price * (1 - s.cfg.SlippageRate)
	}
	return price * (1 + s.cfg.SlippageRate)
}

// CheckRiskLimits reports margin-call, stop/target and at-risk conditions
// for the open book against live prices. It does not close anything.
func (s *Simulator) CheckRiskLimits(prices map[string]float64) risk.LimitReport {
	open := s.ledger.AllOpen()
	positions := make([]risk.Position, len(open))
	for i, t := range open {
		positions[i] = risk.Position{
			ID:         t.ID,
			Symbol:     t.Symbol,
			Side:       t.Side,
			EntryPrice: t.EntryPrice,
			Quantity:   t.Quantity,
			StopLoss:   t.StopLoss,
			TakeProfit: t.TakeProfit,
		}
	}
	return risk.CheckLimits(s.balance, s.cfg.InitialCapital, positions, prices)
}

// UnrealizedPnL marks every open trade at prices; unpriced symbols count as 0.
func (s *Simulator) UnrealizedPnL(prices map[string]float64) float64 {
	var u float64
	for _, t := range s.ledger.AllOpen() {
		if p, ok := prices[t.Symbol]; ok {
			u += t.UnrealizedPnL(p)
		}
	}
	return u
}

func (s *Simulator) Config() config.SimulatorConfig { return s.cfg }
func (s *Simulator) InitialCapital() float64        { return s.cfg.InitialCapital }
func (s *Simulator) Balance() float64               { return s.balance }
func (s *Simulator) MaxBalance() float64            { return s.curve.MaxBalance() }

// EntryCommissions is the total commission charged at open so far.
func (s *Simulator) EntryCommissions() float64 { return s.entryCommissions }

// RealizedPnL is the total net P&L booked by closes so far.
func (s *Simulator) RealizedPnL() float64 { return s.realizedPnL }

func (s *Simulator) OpenPositions(symbol string) []Trade { return s.ledger.Open(symbol) }
func (s *Simulator) AllOpenPositions() []Trade           { return s.ledger.AllOpen() }
func (s *Simulator) OpenQuantity(symbol string) float64  { return s.ledger.OpenQuantity(symbol) }
func (s *Simulator) ClosedTrades() []Trade               { return s.ledger.Closed() }
func (s *Simulator) EquityCurve() []equity.Point         { return s.curve.Points() }
func (s *Simulator) Returns() []float64                  { return s.curve.Returns() }
func (s *Simulator) Drawdowns() []equity.Period          { return s.curve.Drawdowns().Periods() }
