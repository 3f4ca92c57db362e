package backtest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rustyeddy/portsim/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		row       []string
		wantOk    bool
		wantErr   bool
		checkFunc func(t *testing.T, ev Event)
	}{
		{
			name:   "price only",
			row:    []string{"2024-01-02T15:00:00Z", "BTC", "100", "105", "99", "104"},
			wantOk: true,
			checkFunc: func(t *testing.T, ev Event) {
				assert.Equal(t, "BTC", ev.Frame.Symbol)
				assert.Equal(t, 104.0, ev.Frame.Close)
				assert.Equal(t, 105.0, ev.Frame.High)
				assert.Nil(t, ev.Signal)
			},
		},
		{
			name:   "empty signal column",
			row:    []string{"2024-01-02T15:00:00Z", "BTC", "100", "105", "99", "104", "", "", ""},
			wantOk: true,
			checkFunc: func(t *testing.T, ev Event) {
				assert.Nil(t, ev.Signal)
			},
		},
		{
			name:   "signal with levels and quantity",
			row:    []string{" 2024-01-02T15:00:00.5Z ", " ETH ", "10", "11", "9", "10.5", "sell", "12", "8", "3"},
			wantOk: true,
			checkFunc: func(t *testing.T, ev Event) {
				require.NotNil(t, ev.Signal)
				assert.Equal(t, "ETH", ev.Signal.Symbol)
				assert.Equal(t, market.Sell, ev.Signal.Type)
				assert.Equal(t, 12.0, ev.Signal.StopLoss)
				assert.Equal(t, 8.0, ev.Signal.TakeProfit)
				assert.Equal(t, 3.0, ev.Signal.Quantity)
				assert.Equal(t, ev.Frame.Time, ev.Signal.Time)
			},
		},
		{
			name:   "signal without levels",
			row:    []string{"2024-01-02T15:00:00Z", "BTC", "100", "105", "99", "104", "LONG"},
			wantOk: true,
			checkFunc: func(t *testing.T, ev Event) {
				require.NotNil(t, ev.Signal)
				assert.Equal(t, market.Buy, ev.Signal.Type)
				assert.Zero(t, ev.Signal.StopLoss)
			},
		},
		{name: "too few columns", row: []string{"2024-01-02T15:00:00Z", "BTC", "100"}},
		{name: "empty time", row: []string{"", "BTC", "100", "105", "99", "104"}},
		{name: "empty symbol", row: []string{"2024-01-02T15:00:00Z", "", "100", "105", "99", "104"}},
		{name: "bad time", row: []string{"yesterday", "BTC", "100", "105", "99", "104"}, wantErr: true},
		{name: "bad close", row: []string{"2024-01-02T15:00:00Z", "BTC", "100", "105", "99", "x"}, wantErr: true},
		{name: "high below low", row: []string{"2024-01-02T15:00:00Z", "BTC", "100", "98", "99", "100"}, wantErr: true},
		{name: "bad side", row: []string{"2024-01-02T15:00:00Z", "BTC", "100", "105", "99", "104", "HOLD"}, wantErr: true},
		{name: "bad stop", row: []string{"2024-01-02T15:00:00Z", "BTC", "100", "105", "99", "104", "BUY", "low"}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ev, ok, err := parseRow(tt.row)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOk, ok)
			if tt.checkFunc != nil {
				tt.checkFunc(t, ev)
			}
		})
	}
}

func TestCSVFeedFile(t *testing.T) {
	t.Parallel()

	data := strings.Join([]string{
		"time,symbol,open,high,low,close,signal,stop,take,quantity",
		"# warmup bars",
		"2024-01-01T00:00:00Z,BTC,100,101,99,100",
		"2024-01-02T00:00:00Z,BTC,100,111,99,110,BUY,95,130,2",
		"",
		"2024-01-03T00:00:00Z,BTC,110,112,104,105",
		"2024-01-04T00:00:00Z,BTC,105,106,100,101,SELL",
	}, "\n")

	path := filepath.Join(t.TempDir(), "feed.csv")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	from := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	feed, err := NewCSVFeed(path, from, to)
	require.NoError(t, err)

	events, err := ReadAll(feed)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, from, events[0].Frame.Time)
	require.NotNil(t, events[0].Signal)
	assert.Equal(t, 2.0, events[0].Signal.Quantity)
	assert.Nil(t, events[1].Signal)
}

func TestCSVFeedReportsLine(t *testing.T) {
	t.Parallel()

	feed := NewCSVFeedReader(strings.NewReader("2024-01-01T00:00:00Z,BTC,1,1,1,1\n2024-01-02T00:00:00Z,BTC,1,1,1,oops\n"), time.Time{}, time.Time{})
	_, err := ReadAll(feed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestNewCSVFeedMissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewCSVFeed(filepath.Join(t.TempDir(), "missing.csv"), time.Time{}, time.Time{})
	assert.Error(t, err)
}
