package market

import (
	"fmt"
	"strings"
)

// Side is the direction of a trade or signal.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// ParseSide accepts BUY/SELL (and LONG/SHORT) in any case.
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY", "LONG":
		return Buy, nil
	case "SELL", "SHORT":
		return Sell, nil
	default:
		return "", fmt.Errorf("unknown side %q", s)
	}
}

func (s Side) Valid() bool { return s == Buy || s == Sell }

// Opposite returns the side that closes a position opened on s.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Sign is +1 for Buy and -1 for Sell.
func (s Side) Sign() float64 {
	if s == Sell {
		return -1
	}
	return 1
}
