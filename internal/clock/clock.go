// Package clock abstracts wall time and timers so expiry classification,
// debouncing, and grace windows can be driven by a controllable clock in tests.
package clock

import "time"

// Timer is a one-shot timer created by AfterFunc.
type Timer interface {
	// Stop prevents the timer from firing. Returns false if the timer has
	// already fired or been stopped.
	Stop() bool
}

// Ticker is a repeating timer created by NewTicker.
type Ticker interface {
	Stop()
}

// Clock provides the current time and timer construction.
type Clock interface {
	Now() time.Time
	// AfterFunc waits for d and then calls f in its own goroutine.
	AfterFunc(d time.Duration, f func()) Timer
	// NewTicker returns a ticker and the channel it delivers ticks on.
	NewTicker(d time.Duration) (Ticker, <-chan time.Time)
}

// Real is a Clock backed by the time package. Now returns UTC.
type Real struct{}

func (Real) Now() time.Time { return time.Now().UTC() }

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (Real) NewTicker(d time.Duration) (Ticker, <-chan time.Time) {
	t := time.NewTicker(d)
	return t, t.C
}
