package sim

import "sort"

// Ledger owns the open positions (a FIFO queue per symbol) and the
// append-only list of closed trade records.
type Ledger struct {
	open   map[string][]*Trade
	closed []Trade
}

func NewLedger() *Ledger {
	return &Ledger{open: make(map[string][]*Trade)}
}

func (l *Ledger) push(t *Trade) {
	l.open[t.Symbol] = append(l.open[t.Symbol], t)
}

// front returns the oldest open trade for symbol.
func (l *Ledger) front(symbol string) (*Trade, bool) {
	q := l.open[symbol]
	if len(q) == 0 {
		return nil, false
	}
	return q[0], true
}

// find locates an open trade by id.
func (l *Ledger) find(id string) (*Trade, bool) {
	for _, q := range l.open {
		for _, t := range q {
			if t.ID == id {
				return t, true
			}
		}
	}
	return nil, false
}

// remove drops t from its symbol queue, preserving the order of the rest.
func (l *Ledger) remove(t *Trade) {
	q := l.open[t.Symbol]
	for i, o := range q {
		if o == t {
			q = append(q[:i:i], q[i+1:]...)
			break
		}
	}
	if len(q) == 0 {
		delete(l.open, t.Symbol)
		return
	}
	l.open[t.Symbol] = q
}

func (l *Ledger) record(t Trade) {
	l.closed = append(l.closed, t)
}

// Count is the number of open trades for symbol.
func (l *Ledger) Count(symbol string) int {
	return len(l.open[symbol])
}

// OpenQuantity sums the open quantity for symbol.
func (l *Ledger) OpenQuantity(symbol string) float64 {
	var q float64
	for _, t := range l.open[symbol] {
		q += t.Quantity
	}
	return q
}

// Open returns copies of the open trades for symbol, oldest first.
func (l *Ledger) Open(symbol string) []Trade {
	q := l.open[symbol]
	out := make([]Trade, len(q))
	for i, t := range q {
		out[i] = *t
	}
	return out
}

// AllOpen returns copies of every open trade, grouped by symbol in
// lexical order and oldest first within a symbol.
func (l *Ledger) AllOpen() []Trade {
	var out []Trade
	for _, sym := range l.Symbols() {
		out = append(out, l.Open(sym)...)
	}
	return out
}

// Symbols lists the symbols with open trades in lexical order.
func (l *Ledger) Symbols() []string {
	syms := make([]string, 0, len(l.open))
	for sym := range l.open {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}

// Closed returns a copy of the closed trade history in close order.
func (l *Ledger) Closed() []Trade {
	out := make([]Trade, len(l.closed))
	copy(out, l.closed)
	return out
}

// PnLHistory is the net P&L of each closed record in close order.
func (l *Ledger) PnLHistory() []float64 {
	out := make([]float64, len(l.closed))
	for i, t := range l.closed {
		out[i] = t.PnL
	}
	return out
}
