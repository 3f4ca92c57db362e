package equity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawdownsOpenExtendRecover(t *testing.T) {
	t.Parallel()

	d := NewDrawdowns(1000)

	d.Observe(day(1), 900)
	cur, ok := d.Current()
	require.True(t, ok)
	assert.Equal(t, 1000.0, cur.StartValue)
	assert.InDelta(t, 0.1, cur.MaxDrawdown, 1e-12)

	d.Observe(day(3), 800)
	d.Observe(day(4), 950)
	cur, ok = d.Current()
	require.True(t, ok)
	assert.Equal(t, 800.0, cur.MinValue)
	assert.InDelta(t, 0.2, cur.MaxDrawdown, 1e-12)
	assert.InDelta(t, 3.0, cur.Days, 1e-12)
	assert.True(t, cur.End.IsZero())

	d.Observe(day(6), 1001)
	_, ok = d.Current()
	assert.False(t, ok)

	periods := d.Periods()
	require.Len(t, periods, 1)
	assert.True(t, periods[0].Recovered)
	assert.True(t, periods[0].End.Equal(day(6)))
	assert.InDelta(t, 5.0, periods[0].Days, 1e-12)
	assert.Equal(t, 1001.0, d.Peak())
}

func TestDrawdownsAtMostOneOpen(t *testing.T) {
	t.Parallel()

	d := NewDrawdowns(100)
	values := []float64{90, 110, 105, 120, 60, 70, 130, 125}
	for i, v := range values {
		d.Observe(day(i), v)
		open := 0
		for _, p := range d.Periods() {
			if !p.Recovered {
				open++
			}
			assert.GreaterOrEqual(t, p.MaxDrawdown, 0.0)
			assert.LessOrEqual(t, p.MaxDrawdown, 1.0)
		}
		assert.LessOrEqual(t, open, 1)
	}
	assert.Len(t, d.Periods(), 4)
	assert.InDelta(t, 0.5, MaxDrawdown(d.Periods()), 1e-12)
}

func TestDrawdownsEqualToPeakDoesNotOpen(t *testing.T) {
	t.Parallel()

	d := NewDrawdowns(100)
	d.Observe(day(1), 100)
	assert.Empty(t, d.Periods())
}

func TestDrawdownClampedAtOne(t *testing.T) {
	t.Parallel()

	d := NewDrawdowns(100)
	d.Observe(day(1), -50)
	assert.Equal(t, 1.0, MaxDrawdown(d.Periods()))
}

func TestSeriesAndMaxDrawdownOf(t *testing.T) {
	t.Parallel()

	got := Series([]float64{100, 80, 120, 90}, 100)
	assert.InDeltaSlice(t, []float64{0, 0.2, 0, 0.25}, got, 1e-12)

	assert.InDelta(t, 0.25, MaxDrawdownOf([]float64{100, 80, 120, 90}), 1e-12)
	assert.Equal(t, 0.0, MaxDrawdownOf(nil))
	assert.Equal(t, 0.0, MaxDrawdownOf([]float64{1, 2, 3}))
}

func TestLongestDays(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, LongestDays(nil))
	assert.Equal(t, 4.0, LongestDays([]Period{{Days: 1}, {Days: 4}, {Days: 2}}))
}
