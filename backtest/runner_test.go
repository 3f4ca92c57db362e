package backtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rustyeddy/portsim/config"
	"github.com/rustyeddy/portsim/journal"
	"github.com/rustyeddy/portsim/market"
	"github.com/rustyeddy/portsim/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type reasonJournal struct {
	journal.Nop
	reasons []string
}

func (j *reasonJournal) RecordTrade(rec journal.TradeRecord) error {
	j.reasons = append(j.reasons, rec.Reason)
	return nil
}

// errorFeed fails on the first read.
type errorFeed struct{ closed bool }

func (e *errorFeed) Next() (Event, bool, error) {
	return Event{}, false, errors.New("mock error")
}

func (e *errorFeed) Close() error {
	e.closed = true
	return nil
}

func frame(i int, close float64) market.Frame {
	return market.Frame{
		Symbol: "BTC",
		Time:   day0.Add(time.Duration(i) * 24 * time.Hour),
		Candle: market.Candle{Open: close, High: close, Low: close, Close: close},
	}
}

func priced(i int, close float64) Event {
	return Event{Frame: frame(i, close)}
}

func signal(i int, close float64, side market.Side, qty, stop, take float64) Event {
	f := frame(i, close)
	return Event{Frame: f, Signal: &market.Signal{
		Symbol: "BTC", Type: side, Time: f.Time,
		Quantity: qty, StopLoss: stop, TakeProfit: take,
	}}
}

func newRunner(t *testing.T, events []Event, closeEnd bool) (*Runner, *reasonJournal) {
	t.Helper()
	cfg := config.Default().Simulator
	cfg.CommissionRate = 0
	cfg.SlippageRate = 0

	j := &reasonJournal{}
	s, err := sim.New(cfg, sim.WithJournal(j))
	require.NoError(t, err)
	return &Runner{Sim: s, Feed: &SliceFeed{Events: events}, Options: Options{CloseEnd: closeEnd}}, j
}

func TestRunnerSignalsReverse(t *testing.T) {
	t.Parallel()

	r, j := newRunner(t, []Event{
		signal(0, 100, market.Buy, 10, 0, 0),
		signal(1, 110, market.Sell, 5, 0, 0),
		priced(2, 100),
	}, true)

	res, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Frames)
	assert.Equal(t, 2, res.Signals)
	assert.Equal(t, 2, res.Trades)
	assert.Equal(t, 2, res.Wins)
	assert.InDelta(t, 100150, res.Balance, 1e-9)
	assert.Equal(t, day0, res.Start)
	assert.Equal(t, day0.Add(48*time.Hour), res.End)
	assert.Equal(t, []string{ReasonSignal, ReasonEnd}, j.reasons)
	assert.Empty(t, r.Sim.AllOpenPositions())
}

func TestRunnerStopAndTarget(t *testing.T) {
	t.Parallel()

	r, j := newRunner(t, []Event{
		signal(0, 100, market.Buy, 10, 95, 120),
		priced(1, 94),
		signal(2, 100, market.Sell, 10, 0, 90),
		priced(3, 85),
		priced(4, 130),
	}, true)

	res, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, res.Trades)
	closed := r.Sim.ClosedTrades()
	// the stop gapped through to 94 and fills there; the target fills at its level
	assert.Equal(t, 94.0, closed[0].ExitPrice)
	assert.Equal(t, 90.0, closed[1].ExitPrice)
	assert.InDelta(t, -60+100, res.Balance-100000, 1e-9)
	assert.Equal(t, []string{ReasonStopLoss, ReasonTakeProfit}, j.reasons)
}

func TestRunnerMarginCallStops(t *testing.T) {
	t.Parallel()

	r, j := newRunner(t, []Event{
		signal(0, 100, market.Sell, 900, 0, 0),
		signal(1, 190, market.Buy, 1, 0, 0),
		priced(2, 200),
		priced(3, 50),
	}, true)

	res, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.MarginCall)
	assert.Equal(t, 3, res.Frames)
	assert.Equal(t, day0.Add(48*time.Hour), res.End)
	assert.Equal(t, 2, res.Trades)
	assert.InDelta(t, 100000-81000+10, res.Balance, 1e-9)
	assert.Equal(t, []string{ReasonSignal, ReasonMarginCall}, j.reasons)
	assert.Empty(t, r.Sim.AllOpenPositions())
}

func TestRunnerCountsRejections(t *testing.T) {
	t.Parallel()

	var events []Event
	for i := 0; i < 4; i++ {
		events = append(events, signal(i, 100, market.Buy, 1, 0, 0))
	}
	r, _ := newRunner(t, events, false)

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rejected[sim.PositionLimitExceeded])
	assert.Len(t, r.Sim.OpenPositions("BTC"), 3)
	assert.Zero(t, res.Trades)
}

func TestRunnerErrors(t *testing.T) {
	t.Parallel()

	_, err := (&Runner{}).Run(context.Background())
	assert.Error(t, err)

	r, _ := newRunner(t, nil, false)
	feed := &errorFeed{}
	r.Feed = feed
	_, err = r.Run(context.Background())
	assert.Error(t, err)
	assert.True(t, feed.closed)

	r, _ = newRunner(t, []Event{priced(0, 100)}, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunnerMinRewardRisk(t *testing.T) {
	t.Parallel()

	r, _ := newRunner(t, []Event{
		signal(0, 100, market.Buy, 10, 95, 105), // rr 1, skipped
		signal(1, 100, market.Buy, 10, 95, 110), // rr 2
		signal(2, 100, market.Buy, 10, 0, 0),    // no levels, not filtered
	}, false)
	r.Options.MinRewardRisk = 1.5

	res, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Rejected[RewardRiskTooLow])
	assert.Len(t, r.Sim.AllOpenPositions(), 2)
}

func TestRunnerStopFillsAtLevelWithoutGap(t *testing.T) {
	t.Parallel()

	r, _ := newRunner(t, []Event{
		signal(0, 100, market.Sell, 10, 105, 0),
		priced(1, 105),
		signal(2, 100, market.Sell, 10, 105, 0),
		priced(3, 112),
	}, false)

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	closed := r.Sim.ClosedTrades()
	require.Len(t, closed, 2)
	assert.Equal(t, 105.0, closed[0].ExitPrice)
	assert.Equal(t, 112.0, closed[1].ExitPrice)
}
