package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Mode selects how the shared elapsed counter is displayed.
type Mode string

const (
	ModeElapsed   Mode = "elapsed"
	ModeCountdown Mode = "countdown"
)

// Timer is the single shared wall-clock timer. It starts counting the moment
// any output role first activates and is not tied to a single role; it only
// resets when the operator explicitly resets it.
//
// All time observation goes through the injected clock so tests can drive it
// with a fake.
type Timer struct {
	clock clockwork.Clock

	mu        sync.Mutex
	startedAt time.Time
	running   bool
}

// New creates a stopped timer.
func New(clock clockwork.Clock) *Timer {
	return &Timer{clock: clock}
}

// Start begins counting from now. Calling Start on a running timer is a no-op.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.startedAt = t.clock.Now()
	t.running = true
}

// Reset restarts the count from zero. The timer keeps running if it was
// running; a stopped timer stays stopped.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startedAt = t.clock.Now()
}

// Running reports whether the timer has been started.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// ElapsedSeconds returns the whole seconds since Start, monotonic
// non-decreasing while running. A stopped timer reads zero.
func (t *Timer) ElapsedSeconds() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return 0
	}
	return int(t.clock.Since(t.startedAt) / time.Second)
}

// Readout formats the timer for display in the given mode. Countdown remaining
// is derived, never stored: max(0, countdownSeconds - elapsed).
func (t *Timer) Readout(mode Mode, countdownSeconds int) string {
	elapsed := t.ElapsedSeconds()
	if mode == ModeCountdown {
		return FormatHMS(Remaining(countdownSeconds, elapsed))
	}
	return FormatHMS(elapsed)
}

// Run drives the 1Hz tick loop until the context is cancelled, invoking tick
// once per second. The tick is independent of slide-change events; it keeps
// firing even when no state update occurs.
func (t *Timer) Run(ctx context.Context, tick func()) {
	ticker := t.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			tick()
		}
	}
}

// Remaining clamps a countdown at zero; it never goes negative.
func Remaining(countdownSeconds, elapsedSeconds int) int {
	remaining := countdownSeconds - elapsedSeconds
	if remaining < 0 {
		return 0
	}
	return remaining
}

// FormatHMS renders whole seconds as zero-padded HH:MM:SS with unbounded
// hours.
func FormatHMS(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	h := totalSeconds / 3600
	m := (totalSeconds % 3600) / 60
	s := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
