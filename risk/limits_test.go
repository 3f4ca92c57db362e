package risk

import (
	"testing"

	"github.com/rustyeddy/portsim/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckLimitsMarginCallBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		balance float64
		want    bool
	}{
		{"exactly 25%", 25000, false},
		{"one cent below", 24999.99, true},
		{"healthy", 90000, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := CheckLimits(tt.balance, 100000, nil, nil)
			assert.Equal(t, tt.want, r.MarginCall)
		})
	}
}

func TestCheckLimitsStopsAndTargets(t *testing.T) {
	t.Parallel()

	positions := []Position{
		{ID: "long", Symbol: "BTC", Side: market.Buy, EntryPrice: 100, Quantity: 1, StopLoss: 90, TakeProfit: 120},
		{ID: "short", Symbol: "ETH", Side: market.Sell, EntryPrice: 50, Quantity: 1, StopLoss: 55, TakeProfit: 40},
		{ID: "bare", Symbol: "SOL", Side: market.Buy, EntryPrice: 10, Quantity: 1},
		{ID: "unpriced", Symbol: "XRP", Side: market.Buy, EntryPrice: 1, Quantity: 1, StopLoss: 2},
	}

	r := CheckLimits(100000, 100000, positions, map[string]float64{
		"BTC": 89,
		"ETH": 39,
		"SOL": 1,
	})

	require.Len(t, r.StopLossTriggered, 1)
	assert.Equal(t, "long", r.StopLossTriggered[0].ID)
	assert.InDelta(t, -11.0, r.StopLossTriggered[0].UnrealizedPnL, 1e-9)

	require.Len(t, r.TakeProfitTriggered, 1)
	assert.Equal(t, "short", r.TakeProfitTriggered[0].ID)
	assert.InDelta(t, 11.0, r.TakeProfitTriggered[0].UnrealizedPnL, 1e-9)

	assert.Empty(t, r.PositionsAtRisk)
	assert.False(t, r.MarginCall)
	assert.True(t, r.Any())
}

func TestCheckLimitsShortStopDirection(t *testing.T) {
	t.Parallel()

	p := Position{ID: "s", Symbol: "ETH", Side: market.Sell, EntryPrice: 50, Quantity: 1, StopLoss: 55}
	r := CheckLimits(100000, 100000, []Position{p}, map[string]float64{"ETH": 54.99})
	assert.Empty(t, r.StopLossTriggered)

	r = CheckLimits(100000, 100000, []Position{p}, map[string]float64{"ETH": 55})
	assert.Len(t, r.StopLossTriggered, 1)
}

func TestCheckLimitsPositionsAtRisk(t *testing.T) {
	t.Parallel()

	// 5% of 100000 is 5000; a loss of exactly 5000 is not "exceeding".
	p := Position{ID: "big", Symbol: "BTC", Side: market.Buy, EntryPrice: 10000, Quantity: 1}

	r := CheckLimits(100000, 100000, []Position{p}, map[string]float64{"BTC": 5000})
	assert.Empty(t, r.PositionsAtRisk)

	r = CheckLimits(100000, 100000, []Position{p}, map[string]float64{"BTC": 4999})
	require.Len(t, r.PositionsAtRisk, 1)
	assert.InDelta(t, -5001.0, r.PositionsAtRisk[0].UnrealizedPnL, 1e-9)
}

func TestLimitReportAnyEmpty(t *testing.T) {
	t.Parallel()
	assert.False(t, LimitReport{}.Any())
}
