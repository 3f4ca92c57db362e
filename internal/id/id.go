// Package id generates time-sortable trade identifiers.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu   sync.Mutex
	mono io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	// Monotonic keeps ids minted within the same millisecond increasing.
	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns a ULID stamped with t. A zero t uses the wall clock.
//
// Backtests pass the simulated entry time so ids sort in simulated order,
// not in the order the process happened to run.
func New(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}

	ms := timestamp(t)

	mu.Lock()
	defer mu.Unlock()

	v, err := ulid.New(ms, mono)
	if err != nil {
		// Monotonic entropy only fails on overflow within one millisecond.
		if v, err = ulid.New(ms, cryptoRand.Reader); err != nil {
			v = ulid.Make()
		}
	}
	return v.String()
}

// timestamp clamps t to the range a ULID can encode: times before the Unix
// epoch map to 0 and times past ulid.MaxTime map to the maximum.
func timestamp(t time.Time) uint64 {
	if t.Before(time.Unix(0, 0)) {
		return 0
	}
	if t.After(ulid.Time(ulid.MaxTime())) {
		return ulid.MaxTime()
	}
	return ulid.Timestamp(t)
}

// Fill returns the id of the n-th partial fill of parent, e.g. "01H...-2".
func Fill(parent string, n int) string {
	return parent + "-" + strconv.Itoa(n)
}

// Time extracts the embedded timestamp of a ULID string.
func Time(s string) (time.Time, error) {
	v, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(v.Time()), nil
}
