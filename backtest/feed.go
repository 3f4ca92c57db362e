package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/portsim/market"
)

// Event is one feed row: a priced frame and, optionally, a signal to act on
// at the frame's close.
type Event struct {
	Frame  market.Frame
	Signal *market.Signal
}

// Feed yields events in time order and returns (ok=false, err=nil) at EOF.
type Feed interface {
	Next() (ev Event, ok bool, err error)
	Close() error
}

// CSVFeed reads rows of the form
//
//	time,symbol,open,high,low,close[,signal,stop,take[,quantity]]
//
// where time is RFC3339 or RFC3339Nano and signal is BUY or SELL (empty for
// a price-only row). A single header row is allowed and short rows are
// skipped. Rows outside [from, to) are dropped when the bounds are set.
type CSVFeed struct {
	c    io.Closer
	r    *csv.Reader
	from time.Time
	to   time.Time

	sawFirst bool
	line     int
}

func NewCSVFeed(path string, from, to time.Time) (*CSVFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feed: %w", err)
	}
	feed := NewCSVFeedReader(f, from, to)
	feed.c = f
	return feed, nil
}

// NewCSVFeedReader reads from r; Close is a no-op unless r came from
// NewCSVFeed.
func NewCSVFeedReader(r io.Reader, from, to time.Time) *CSVFeed {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	return &CSVFeed{r: cr, from: from, to: to}
}

func (f *CSVFeed) Close() error {
	if f.c != nil {
		return f.c.Close()
	}
	return nil
}

func (f *CSVFeed) Next() (Event, bool, error) {
	for {
		row, err := f.r.Read()
		if err == io.EOF {
			return Event{}, false, nil
		}
		if err != nil {
			return Event{}, false, err
		}
		f.line++
		if len(row) == 0 {
			continue
		}

		if !f.sawFirst {
			f.sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				continue
			}
		}

		ev, ok, err := parseRow(row)
		if err != nil {
			return Event{}, false, fmt.Errorf("feed row %d: %w", f.line, err)
		}
		if !ok {
			continue
		}
		if !inRange(ev.Frame.Time, f.from, f.to) {
			continue
		}
		return ev, true, nil
	}
}

func parseRow(row []string) (Event, bool, error) {
	if len(row) < 6 {
		return Event{}, false, nil
	}
	for i := range row {
		row[i] = strings.TrimSpace(row[i])
	}

	if row[0] == "" || row[1] == "" {
		return Event{}, false, nil
	}
	t, err := time.Parse(time.RFC3339, row[0])
	if err != nil {
		t2, err2 := time.Parse(time.RFC3339Nano, row[0])
		if err2 != nil {
			return Event{}, false, fmt.Errorf("bad time %q: %w", row[0], err)
		}
		t = t2
	}

	var ohlc [4]float64
	for i, name := range []string{"open", "high", "low", "close"} {
		v, err := strconv.ParseFloat(row[2+i], 64)
		if err != nil {
			return Event{}, false, fmt.Errorf("bad %s %q: %w", name, row[2+i], err)
		}
		ohlc[i] = v
	}

	ev := Event{Frame: market.Frame{
		Symbol: row[1],
		Time:   t,
		Candle: market.Candle{Open: ohlc[0], High: ohlc[1], Low: ohlc[2], Close: ohlc[3]},
	}}
	if !ev.Frame.Valid() {
		return Event{}, false, fmt.Errorf("invalid frame for %s at %s", row[1], row[0])
	}

	if len(row) < 7 || row[6] == "" {
		return ev, true, nil
	}

	side, err := market.ParseSide(row[6])
	if err != nil {
		return Event{}, false, err
	}
	sig := &market.Signal{Symbol: ev.Frame.Symbol, Type: side, Time: t}
	if sig.StopLoss, err = optFloat(row, 7); err != nil {
		return Event{}, false, fmt.Errorf("bad stop: %w", err)
	}
	if sig.TakeProfit, err = optFloat(row, 8); err != nil {
		return Event{}, false, fmt.Errorf("bad take: %w", err)
	}
	if sig.Quantity, err = optFloat(row, 9); err != nil {
		return Event{}, false, fmt.Errorf("bad quantity: %w", err)
	}
	ev.Signal = sig
	return ev, true, nil
}

// optFloat parses row[i], treating a missing or empty column as zero.
func optFloat(row []string, i int) (float64, error) {
	if i >= len(row) || row[i] == "" {
		return 0, nil
	}
	return strconv.ParseFloat(row[i], 64)
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

// SliceFeed replays events held in memory.
type SliceFeed struct {
	Events []Event
	i      int
}

func (s *SliceFeed) Next() (Event, bool, error) {
	if s.i >= len(s.Events) {
		return Event{}, false, nil
	}
	ev := s.Events[s.i]
	s.i++
	return ev, true, nil
}

func (s *SliceFeed) Close() error { return nil }

// ReadAll drains f into memory and closes it.
func ReadAll(f Feed) ([]Event, error) {
	defer f.Close()

	var out []Event
	for {
		ev, ok, err := f.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, ev)
	}
}
