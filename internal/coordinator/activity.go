package coordinator

import (
	"sync"
	"time"

	"pos-session-manager/internal/clock"
)

// Source delivers raw user-interaction signals (pointer movement, key press,
// click equivalents). Closing the channel detaches the watcher for that source.
type Source interface {
	Events() <-chan struct{}
}

// ChannelSource is a Source backed by a plain channel, for wiring and tests.
type ChannelSource struct {
	C chan struct{}
}

// NewChannelSource returns a buffered ChannelSource.
func NewChannelSource() *ChannelSource {
	return &ChannelSource{C: make(chan struct{}, 16)}
}

func (s *ChannelSource) Events() <-chan struct{} { return s.C }

// Signal records one interaction. Non-blocking; bursts beyond the buffer are
// dropped, which is fine because the detector debounces anyway.
func (s *ChannelSource) Signal() {
	select {
	case s.C <- struct{}{}:
	default:
	}
}

// Detector collapses interaction bursts into a single renew callback per quiet
// window: the callback fires only once the window has elapsed with no further
// events (trailing debounce), trickle-feeding renewal requests instead of
// renewing on every pixel of pointer movement.
type Detector struct {
	clk    clock.Clock
	window time.Duration
	renew  func()

	mu       sync.Mutex
	timer    clock.Timer
	stop     chan struct{}
	attached bool
}

// NewDetector returns a detector that calls renew after each quiet window.
func NewDetector(clk clock.Clock, window time.Duration, renew func()) *Detector {
	return &Detector{clk: clk, window: window, renew: renew}
}

// Attach subscribes to the given sources. Idempotent: a second Attach while
// already attached is a no-op, so duplicate subscriptions cannot occur.
func (d *Detector) Attach(sources ...Source) {
	d.mu.Lock()
	if d.attached {
		d.mu.Unlock()
		return
	}
	d.attached = true
	d.stop = make(chan struct{})
	stop := d.stop
	d.mu.Unlock()

	for _, src := range sources {
		go d.watch(src, stop)
	}
}

// Detach unsubscribes all sources and cancels any pending debounce timer.
// Safe to call when not attached; a second Detach is a no-op.
func (d *Detector) Detach() {
	d.mu.Lock()
	if !d.attached {
		d.mu.Unlock()
		return
	}
	d.attached = false
	close(d.stop)
	d.stop = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
}

func (d *Detector) watch(src Source, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case _, ok := <-src.Events():
			if !ok {
				return
			}
			d.bump(stop)
		}
	}
}

// bump cancels any pending timer and schedules the callback one full window
// out, so a steady event stream keeps pushing the callback into the future.
func (d *Detector) bump(stop chan struct{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != stop {
		// Detached (or re-attached) after this event was read.
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clk.AfterFunc(d.window, func() {
		d.mu.Lock()
		fire := d.stop == stop
		d.timer = nil
		d.mu.Unlock()
		if fire {
			d.renew()
		}
	})
}
