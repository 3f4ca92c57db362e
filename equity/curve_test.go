package equity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time { return t0.AddDate(0, 0, n) }

func TestCurveReturns(t *testing.T) {
	t.Parallel()

	c := NewCurve(1000)
	c.Seed(day(0), 1000)
	assert.True(t, c.Seeded())

	assert.InDelta(t, 0.1, c.Update(day(1), 1100), 1e-12)
	assert.InDelta(t, -0.1, c.Update(day(2), 990), 1e-12)

	assert.Len(t, c.Points(), 3)
	assert.Equal(t, []float64{(1100.0 - 1000) / 1000, (990.0 - 1100) / 1100}, c.Returns())
	assert.Equal(t, 1100.0, c.MaxBalance())

	last, ok := c.Last()
	require.True(t, ok)
	assert.Equal(t, 990.0, last.Value)
}

func TestCurveSeedOnlyOnce(t *testing.T) {
	t.Parallel()

	c := NewCurve(1000)
	c.Seed(day(0), 1000)
	c.Seed(day(5), 5000)
	pts := c.Points()
	require.Len(t, pts, 1)
	assert.Equal(t, 1000.0, pts[0].Value)
	assert.Empty(t, c.Returns())
}

func TestCurveClampsBackwardDates(t *testing.T) {
	t.Parallel()

	c := NewCurve(1000)
	c.Seed(day(3), 1000)
	c.Update(day(1), 1010)

	pts := c.Points()
	require.Len(t, pts, 2)
	assert.True(t, pts[1].Date.Equal(day(3)))
	for i := 1; i < len(pts); i++ {
		assert.False(t, pts[i].Date.Before(pts[i-1].Date))
	}
}

func TestCurveMaxBalanceNeverDecreases(t *testing.T) {
	t.Parallel()

	c := NewCurve(1000)
	c.Seed(day(0), 1000)
	prev := c.MaxBalance()
	for i, v := range []float64{1200, 900, 1300, 1250, 800, 1400} {
		c.Update(day(i+1), v)
		assert.GreaterOrEqual(t, c.MaxBalance(), prev)
		prev = c.MaxBalance()
	}
	assert.Equal(t, 1400.0, c.MaxBalance())
}

func TestCurveUnseededUpdate(t *testing.T) {
	t.Parallel()

	c := NewCurve(1000)
	assert.Equal(t, 0.0, c.Update(day(0), 900))
	assert.Empty(t, c.Returns())
	assert.Len(t, c.Drawdowns().Periods(), 1)

	_, ok := NewCurve(1).Last()
	assert.False(t, ok)
}
