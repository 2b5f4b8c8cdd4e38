// Package escalate implements the client-local escalation countdown.
//
// Every client that observes a device in FALL runs its own countdown; the
// countdown is never shared or persisted, so each subscriber's clock starts
// when that subscriber saw the FALL. On expiry the owning client fires the
// FALL-to-SOS transition exactly once. An externally observed status change
// cancels the countdown without firing.
package escalate

import (
	"sync"
	"time"
)

// DefaultTicks is the countdown length: 15 ticks, one per interval.
const DefaultTicks = 15

// DefaultInterval is the length of one tick.
const DefaultInterval = time.Second

// Timer is a single cancellable countdown. A Timer fires at most once and
// cannot be restarted; observers start a fresh Timer for each FALL episode.
type Timer struct {
	interval time.Duration
	onTick   func(remaining int)
	onFire   func()

	mu        sync.Mutex
	remaining int
	fired     bool
	cancelled bool

	stop chan struct{}
	done chan struct{}
}

// Start launches a countdown of ticks intervals. onTick (optional) is called
// after every elapsed tick with the number of ticks left; onFire is called
// exactly once when the countdown reaches zero without being cancelled.
// Both callbacks run on the timer's goroutine.
func Start(ticks int, interval time.Duration, onTick func(remaining int), onFire func()) *Timer {
	if ticks <= 0 {
		ticks = DefaultTicks
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	t := &Timer{
		interval:  interval,
		onTick:    onTick,
		onFire:    onFire,
		remaining: ticks,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *Timer) run() {
	defer close(t.done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.mu.Lock()
			if t.cancelled {
				t.mu.Unlock()
				return
			}
			t.remaining--
			remaining := t.remaining
			expired := remaining <= 0
			if expired {
				t.fired = true
			}
			t.mu.Unlock()

			if t.onTick != nil {
				t.onTick(remaining)
			}
			if expired {
				if t.onFire != nil {
					t.onFire()
				}
				return
			}
		}
	}
}

// Cancel stops the countdown without firing. Cancelling an already-fired or
// already-cancelled timer is a no-op. Cancel waits for the timer goroutine
// to exit, so no callback runs after Cancel returns.
func (t *Timer) Cancel() {
	t.mu.Lock()
	if t.cancelled || t.fired {
		t.mu.Unlock()
		<-t.done
		return
	}
	t.cancelled = true
	close(t.stop)
	t.mu.Unlock()
	<-t.done
}

// Done returns a channel closed when the timer has fired or been cancelled.
func (t *Timer) Done() <-chan struct{} {
	return t.done
}

// Fired reports whether the countdown reached zero and invoked onFire.
func (t *Timer) Fired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}

// Remaining returns the number of ticks left.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}
