package auction

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// RoundTimer counts down the active round one second at a time and fires the
// expiry callback exactly once when it reaches zero. The tick source is a
// clockwork ticker, so tests drive it with a fake clock (or call Tick
// directly) instead of sleeping.
//
// Callbacks run outside the timer's own lock: the coordinator re-enters the
// timer (Extend, Cancel) while holding its round lock, and tick delivery must
// not hold the timer lock when it takes that same round lock.
type RoundTimer struct {
	clock    clockwork.Clock
	onTick   func(remaining int)
	onExpire func()

	mu        sync.Mutex
	remaining int
	expired   bool
	stopped   bool
	stopCh    chan struct{}
}

// NewRoundTimer creates a timer for one round. onTick receives the remaining
// seconds after each elapsed second; onExpire fires once, instead of a tick,
// when the countdown hits zero.
func NewRoundTimer(clock clockwork.Clock, durationSec int, onTick func(remaining int), onExpire func()) *RoundTimer {
	return &RoundTimer{
		clock:     clock,
		onTick:    onTick,
		onExpire:  onExpire,
		remaining: durationSec,
		stopCh:    make(chan struct{}),
	}
}

// Start launches the ticking goroutine. Tests may skip Start and call Tick
// directly for deterministic sequencing.
func (t *RoundTimer) Start() {
	go t.run()
}

func (t *RoundTimer) run() {
	ticker := t.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.Chan():
			if done := t.Tick(); done {
				return
			}
		}
	}
}

// Tick advances the countdown by one second. It reports true when the timer
// has finished (expired or cancelled). Ticking an expired or cancelled timer
// is a no-op, so Expired can never fire twice.
func (t *RoundTimer) Tick() bool {
	t.mu.Lock()
	if t.expired || t.stopped {
		t.mu.Unlock()
		return true
	}
	t.remaining--
	rem := t.remaining
	fire := rem <= 0
	if fire {
		// Release the ticking goroutine too.
		t.expired = true
		t.stopped = true
		close(t.stopCh)
	}
	t.mu.Unlock()

	if fire {
		t.onExpire()
		return true
	}
	t.onTick(rem)
	return false
}

// Remaining returns the seconds left on the countdown.
func (t *RoundTimer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Extend adds deltaSec seconds to the countdown. No effect once the timer
// has expired or been cancelled.
func (t *RoundTimer) Extend(deltaSec int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.expired || t.stopped {
		return
	}
	t.remaining += deltaSec
}

// ExtendToFloor raises the countdown back to floorSec if it has dropped
// below it — the anti-snipe reset. No effect once finished.
func (t *RoundTimer) ExtendToFloor(floorSec int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.expired || t.stopped {
		return
	}
	if t.remaining < floorSec {
		t.remaining = floorSec
	}
}

// Cancel stops the timer without firing Expired. Idempotent, and a no-op
// after expiry.
func (t *RoundTimer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.expired || t.stopped {
		return
	}
	t.stopped = true
	close(t.stopCh)
}
