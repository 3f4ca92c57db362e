// Package equity tracks account balance over close events and derives
// per-event returns and drawdown periods from it.
package equity

import "time"

// Point is one balance observation. Points are appended per closed trade, not
// per calendar day.
type Point struct {
	Date  time.Time
	Value float64
}

// Curve is the append-only equity history of one account. It is owned by a
// single simulation run and is not safe for concurrent use.
type Curve struct {
	points    []Point
	returns   []float64
	drawdowns *Drawdowns
}

// NewCurve starts an empty curve whose running peak is initial.
func NewCurve(initial float64) *Curve {
	return &Curve{drawdowns: NewDrawdowns(initial)}
}

// Seed records the baseline point. It has no return and does not touch
// drawdown state. Seeding a non-empty curve is a no-op.
func (c *Curve) Seed(date time.Time, value float64) {
	if len(c.points) > 0 {
		return
	}
	c.points = append(c.points, Point{Date: date, Value: value})
}

// Seeded reports whether the curve has at least one point.
func (c *Curve) Seeded() bool { return len(c.points) > 0 }

// Update appends (date, value), records the return relative to the previous
// point and runs drawdown bookkeeping. A date earlier than the last point is
// clamped so dates never decrease. It returns the event return (0 for the
// first point).
func (c *Curve) Update(date time.Time, value float64) float64 {
	var r float64
	if n := len(c.points); n > 0 {
		prev := c.points[n-1]
		if date.Before(prev.Date) {
			date = prev.Date
		}
		if prev.Value != 0 {
			r = (value - prev.Value) / prev.Value
		}
		c.returns = append(c.returns, r)
	}
	c.points = append(c.points, Point{Date: date, Value: value})
	c.drawdowns.Observe(date, value)
	return r
}

// Points returns a copy of the curve.
func (c *Curve) Points() []Point {
	out := make([]Point, len(c.points))
	copy(out, c.points)
	return out
}

// Returns returns a copy of the event-indexed return series. Returns[i] is
// the change from Points[i] to Points[i+1].
func (c *Curve) Returns() []float64 {
	out := make([]float64, len(c.returns))
	copy(out, c.returns)
	return out
}

// Last returns the newest point, if any.
func (c *Curve) Last() (Point, bool) {
	if len(c.points) == 0 {
		return Point{}, false
	}
	return c.points[len(c.points)-1], true
}

// MaxBalance is the running maximum of all observed values (never below the
// initial peak).
func (c *Curve) MaxBalance() float64 { return c.drawdowns.Peak() }

// Drawdowns exposes the drawdown tracker fed by this curve.
func (c *Curve) Drawdowns() *Drawdowns { return c.drawdowns }
