package clock

import (
	"sync"
	"time"
)

// Fake is a manually advanced Clock for tests. Timers fire synchronously
// inside Advance, in deadline order, without holding the Fake's lock.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	timers  []*fakeTimer
	tickers []*fakeTicker
}

// NewFake returns a Fake clock starting at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{clk: f, deadline: f.now.Add(d), fn: fn}
	f.timers = append(f.timers, t)
	return t
}

func (f *Fake) NewTicker(d time.Duration) (Ticker, <-chan time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{clk: f, period: d, next: f.now.Add(d), ch: make(chan time.Time, 1)}
	f.tickers = append(f.tickers, t)
	return t, t.ch
}

// Advance moves the clock forward by d, firing due timers in deadline order
// and delivering due ticks. Tick delivery is non-blocking: a tick is dropped
// when the previous one has not been consumed, matching time.Ticker.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		var due *fakeTimer
		idx := -1
		for i, t := range f.timers {
			if t.deadline.After(target) {
				continue
			}
			if due == nil || t.deadline.Before(due.deadline) {
				due, idx = t, i
			}
		}
		if due == nil {
			f.mu.Unlock()
			break
		}
		f.timers = append(f.timers[:idx], f.timers[idx+1:]...)
		if due.deadline.After(f.now) {
			f.now = due.deadline
		}
		f.deliverTicksLocked()
		f.mu.Unlock()
		due.fn()
	}

	f.mu.Lock()
	f.now = target
	f.deliverTicksLocked()
	f.mu.Unlock()
}

// ActiveTimers returns the number of pending one-shot timers.
func (f *Fake) ActiveTimers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}

// ActiveTickers returns the number of running tickers.
func (f *Fake) ActiveTickers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tickers)
}

func (f *Fake) deliverTicksLocked() {
	for _, t := range f.tickers {
		for !t.next.After(f.now) {
			select {
			case t.ch <- t.next:
			default:
			}
			t.next = t.next.Add(t.period)
		}
	}
}

type fakeTimer struct {
	clk      *Fake
	deadline time.Time
	fn       func()
}

func (t *fakeTimer) Stop() bool {
	t.clk.mu.Lock()
	defer t.clk.mu.Unlock()
	for i, pending := range t.clk.timers {
		if pending == t {
			t.clk.timers = append(t.clk.timers[:i], t.clk.timers[i+1:]...)
			return true
		}
	}
	return false
}

type fakeTicker struct {
	clk    *Fake
	period time.Duration
	next   time.Time
	ch     chan time.Time
}

func (t *fakeTicker) Stop() {
	t.clk.mu.Lock()
	defer t.clk.mu.Unlock()
	for i, running := range t.clk.tickers {
		if running == t {
			t.clk.tickers = append(t.clk.tickers[:i], t.clk.tickers[i+1:]...)
			return
		}
	}
}
