package equity

import "time"

// Period is one peak-to-recovery interval. End is zero while the period is
// still open.
type Period struct {
	Start       time.Time
	End         time.Time
	StartValue  float64 // the prior peak
	MinValue    float64 // lowest value seen so far
	MaxDrawdown float64 // (StartValue-MinValue)/StartValue
	Days        float64
	Recovered   bool
}

// Drawdowns derives drawdown periods from successive equity observations.
// At most one period is open at any time.
type Drawdowns struct {
	peak    float64
	periods []Period
	open    int // index into periods, -1 when none is open
}

func NewDrawdowns(initialPeak float64) *Drawdowns {
	return &Drawdowns{peak: initialPeak, open: -1}
}

// Observe applies one equity observation. A value above the peak raises the
// peak and closes any open period; a value below it opens or extends one.
// A value equal to the peak extends an open period without deepening it.
func (d *Drawdowns) Observe(date time.Time, value float64) {
	if value > d.peak {
		d.peak = value
		if d.open >= 0 {
			p := &d.periods[d.open]
			p.End = date
			p.Days = days(p.Start, date)
			p.Recovered = true
			d.open = -1
		}
		return
	}

	if d.open < 0 {
		if value == d.peak {
			return
		}
		d.periods = append(d.periods, Period{
			Start:      date,
			StartValue: d.peak,
			MinValue:   value,
		})
		d.open = len(d.periods) - 1
	}

	p := &d.periods[d.open]
	if value < p.MinValue {
		p.MinValue = value
	}
	p.MaxDrawdown = depth(p.StartValue, p.MinValue)
	p.Days = days(p.Start, date)
}

// Peak is the running maximum balance.
func (d *Drawdowns) Peak() float64 { return d.peak }

// Periods returns a copy of all periods, oldest first.
func (d *Drawdowns) Periods() []Period {
	out := make([]Period, len(d.periods))
	copy(out, d.periods)
	return out
}

// Current returns the open period, if any.
func (d *Drawdowns) Current() (Period, bool) {
	if d.open < 0 {
		return Period{}, false
	}
	return d.periods[d.open], true
}

// MaxDrawdown is the deepest drawdown across all periods, in [0, 1].
func MaxDrawdown(periods []Period) float64 {
	var m float64
	for _, p := range periods {
		if p.MaxDrawdown > m {
			m = p.MaxDrawdown
		}
	}
	return m
}

// LongestDays is the longest period duration in days.
func LongestDays(periods []Period) float64 {
	var m float64
	for _, p := range periods {
		if p.Days > m {
			m = p.Days
		}
	}
	return m
}

// Series returns the drawdown of each value against the running peak,
// starting from peak.
func Series(values []float64, peak float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if v > peak {
			peak = v
		}
		out[i] = depth(peak, v)
	}
	return out
}

// MaxDrawdownOf replays values and returns the deepest peak-to-trough drop,
// using the first value as the initial peak.
func MaxDrawdownOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var m float64
	for _, dd := range Series(values, values[0]) {
		if dd > m {
			m = dd
		}
	}
	return m
}

func depth(peak, v float64) float64 {
	if peak <= 0 || v >= peak {
		return 0
	}
	dd := (peak - v) / peak
	if dd > 1 {
		// balance can go negative after losses larger than equity
		return 1
	}
	return dd
}

func days(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24
}
