// Package report renders simulation results for people and spreadsheets:
// CSV exports of trades and the equity curve, a plain-text summary and an
// org-mode run note.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rustyeddy/portsim/equity"
	"github.com/rustyeddy/portsim/metrics"
	"github.com/rustyeddy/portsim/sim"
)

var (
	TradeHeader   = []string{"id", "symbol", "side", "entryTime", "exitTime", "entryPrice", "exitPrice", "quantity", "pnl", "commission", "status", "duration_hours", "return_pct"}
	EquityHeader  = []string{"date", "value", "daily_return", "drawdown"}
	RollingHeader = []string{"date", "return", "sharpe", "drawdown", "win_rate"}
)

// WriteTradesCSV writes one row per trade. Open trades have empty exit
// columns.
func WriteTradesCSV(w io.Writer, trades []sim.Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TradeHeader); err != nil {
		return fmt.Errorf("write trades header: %w", err)
	}

	for _, t := range trades {
		exitTime, exitPrice := "", ""
		if t.Status == sim.Closed {
			exitTime = ts(t.ExitTime)
			exitPrice = num(t.ExitPrice)
		}
		row := []string{
			t.ID,
			t.Symbol,
			string(t.Side),
			ts(t.EntryTime),
			exitTime,
			num(t.EntryPrice),
			exitPrice,
			num(t.Quantity),
			num(t.PnL),
			num(t.Commission),
			string(t.Status),
			strconv.FormatFloat(t.Duration().Hours(), 'f', 2, 64),
			strconv.FormatFloat(t.Return()*100, 'f', 4, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write trade %s: %w", t.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteEquityCSV writes the equity curve with the event return and the
// drawdown from the running peak. The first row has a zero return.
func WriteEquityCSV(w io.Writer, points []equity.Point) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(EquityHeader); err != nil {
		return fmt.Errorf("write equity header: %w", err)
	}
	if len(points) == 0 {
		cw.Flush()
		return cw.Error()
	}

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	dd := equity.Series(values, values[0])

	for i, p := range points {
		var r float64
		if i > 0 && values[i-1] != 0 {
			r = (p.Value - values[i-1]) / values[i-1]
		}
		row := []string{ts(p.Date), num(p.Value), num(r), num(dd[i])}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write equity row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteRollingCSV writes one row per rolling window.
func WriteRollingCSV(w io.Writer, s metrics.Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RollingHeader); err != nil {
		return fmt.Errorf("write rolling header: %w", err)
	}
	for i, d := range s.Dates {
		row := []string{ts(d), num(s.Returns[i]), num(s.Sharpe[i]), num(s.Drawdown[i]), num(s.WinRate[i])}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write rolling row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func num(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
