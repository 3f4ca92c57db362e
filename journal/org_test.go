package journal

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	rec := sampleTrade("01HZZZZZZZZZZZZZZZZZZZZZZZ", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), 19.5)
	out := FormatTradeOrg(rec)

	assert.True(t, strings.HasPrefix(out, "** Trade: BUY BTC (01HZZZZZ)\n"))
	assert.Contains(t, out, ":TRADE_ID: 01HZZZZZZZZZZZZZZZZZZZZZZZ\n")
	assert.Contains(t, out, ":CLOSE_TIME: 2024-01-02T03:04:05Z\n")
	assert.Contains(t, out, ":PNL: 19.50\n")
	assert.True(t, strings.HasSuffix(out, ":END:\n"))
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	out := FormatTradesOrg([]TradeRecord{sampleTrade("A", ts, 1), sampleTrade("B", ts, 2)})
	assert.Equal(t, 2, strings.Count(out, ":PROPERTIES:"))
	assert.Contains(t, out, ":END:\n\n** Trade")

	assert.Equal(t, "", FormatTradesOrg(nil))
}
