package guard

import "sync/atomic"

// Latch is a single-permit, non-blocking try-acquire lock around one
// asynchronous user action. It is deliberately independent of any
// "is this action already loading" presentation state, which can lag the
// actual in-flight request.
type Latch struct {
	busy atomic.Bool
}

// TryAcquire takes the permit if it is free. It must be the first check a
// protected action performs, before any asynchronous work begins.
func (l *Latch) TryAcquire() bool {
	return l.busy.CompareAndSwap(false, true)
}

// Release returns the permit. It must run on both the success and failure
// paths of the protected action; a leaked permit makes the action
// permanently unavailable.
func (l *Latch) Release() {
	l.busy.Store(false)
}

// InFlight reports whether the permit is currently held.
func (l *Latch) InFlight() bool {
	return l.busy.Load()
}
