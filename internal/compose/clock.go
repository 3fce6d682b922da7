package compose

import "time"

// Clock hands out timer handles. Sessions receive one at construction so
// tests can drive coalescing and debouncing deterministically; production
// code uses NewClock.
type Clock interface {
	// NewTimer returns a stopped one-shot timer that runs fn on its own
	// goroutine once the duration passed to Reset elapses.
	NewTimer(fn func()) Timer
	Now() time.Time
}

// Timer is a cancellable, restartable one-shot timer. Each owner holds its
// own handle; timers are never shared between components.
type Timer interface {
	Reset(d time.Duration)
	Stop()
}

type realClock struct{}

// NewClock returns a Clock backed by runtime timers.
func NewClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTimer(fn func()) Timer {
	t := time.AfterFunc(time.Hour, fn)
	t.Stop()
	return &realTimer{t: t}
}

type realTimer struct{ t *time.Timer }

func (r *realTimer) Reset(d time.Duration) { r.t.Reset(d) }
func (r *realTimer) Stop()                 { r.t.Stop() }
