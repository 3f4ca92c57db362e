package journal

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	j, err := NewSQLite(path)
	require.NoError(t, err)
	return j, path
}

func sampleTrade(id string, closeT time.Time, pnl float64) TradeRecord {
	return TradeRecord{
		TradeID:    id,
		Symbol:     "BTC",
		Side:       "BUY",
		Quantity:   2,
		EntryPrice: 100,
		ExitPrice:  110,
		OpenTime:   closeT.Add(-time.Hour),
		CloseTime:  closeT,
		PnL:        pnl,
		Commission: 0.42,
		Reason:     "signal",
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('trades','equity')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	assert.True(t, found["trades"])
	assert.True(t, found["equity"])
}

func TestSQLiteGetTrade(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	closeT := time.Date(2024, 1, 2, 4, 5, 6, 0, time.UTC)
	rec := sampleTrade("T1", closeT, 19.58)
	require.NoError(t, j.RecordTrade(rec))

	got, err := j.GetTrade("T1")
	require.NoError(t, err)
	assert.Equal(t, rec.Symbol, got.Symbol)
	assert.Equal(t, rec.Side, got.Side)
	assert.InDelta(t, rec.Quantity, got.Quantity, 1e-9)
	assert.InDelta(t, rec.PnL, got.PnL, 1e-9)
	assert.InDelta(t, rec.Commission, got.Commission, 1e-9)
	assert.True(t, got.CloseTime.Equal(closeT))
	assert.True(t, got.OpenTime.Equal(rec.OpenTime))

	_, err = j.GetTrade("missing")
	assert.ErrorContains(t, err, "not found")
}

func TestSQLiteDuplicateTradeRejected(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	rec := sampleTrade("T1", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 1)
	require.NoError(t, j.RecordTrade(rec))
	assert.Error(t, j.RecordTrade(rec))
}

func TestSQLiteListTradesClosedBetween(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(sampleTrade("before", day.Add(-time.Minute), 1)))
	require.NoError(t, j.RecordTrade(sampleTrade("b", day.Add(2*time.Hour), 2)))
	require.NoError(t, j.RecordTrade(sampleTrade("a", day.Add(time.Hour), 3)))
	require.NoError(t, j.RecordTrade(sampleTrade("after", day.Add(24*time.Hour), 4)))

	recs, err := j.ListTradesClosedBetween(day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].TradeID)
	assert.Equal(t, "b", recs[1].TradeID)
}

func TestSQLiteEquityRoundTrip(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	ts := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	snap := EquitySnapshot{Time: ts, Balance: 990, Peak: 1000, Return: -0.01, Drawdown: 0.01}
	require.NoError(t, j.RecordEquity(snap))
	require.NoError(t, j.RecordEquity(EquitySnapshot{Time: ts.Add(48 * time.Hour), Balance: 1}))

	got, err := j.ListEquityBetween(ts, ts.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Time.Equal(ts))
	assert.InDelta(t, snap.Balance, got[0].Balance, 1e-9)
	assert.InDelta(t, snap.Peak, got[0].Peak, 1e-9)
	assert.InDelta(t, snap.Return, got[0].Return, 1e-9)
	assert.InDelta(t, snap.Drawdown, got[0].Drawdown, 1e-9)
}
