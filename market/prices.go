package market

import (
	"errors"
	"time"
)

// ErrNoPrice is returned when a symbol has never been priced.
var ErrNoPrice = errors.New("price not found")

// PriceBook keeps the most recent close per symbol.
// It is owned by a single run and is not safe for concurrent use.
type PriceBook struct {
	last map[string]Frame
}

func NewPriceBook() *PriceBook {
	return &PriceBook{last: make(map[string]Frame)}
}

func (pb *PriceBook) Set(f Frame) {
	pb.last[f.Symbol] = f
}

func (pb *PriceBook) Get(symbol string) (Frame, error) {
	f, ok := pb.last[symbol]
	if !ok {
		return Frame{}, ErrNoPrice
	}
	return f, nil
}

// Snapshot returns symbol -> last close.
func (pb *PriceBook) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(pb.last))
	for sym, f := range pb.last {
		out[sym] = f.Close
	}
	return out
}

// Latest returns the newest frame time seen across all symbols.
func (pb *PriceBook) Latest() time.Time {
	var t time.Time
	for _, f := range pb.last {
		if f.Time.After(t) {
			t = f.Time
		}
	}
	return t
}
