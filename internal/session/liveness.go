package session

import "sync/atomic"

// Liveness is a one-way flag: it starts alive and can only be killed.
// It is safe for concurrent use.
type Liveness struct {
	dead atomic.Bool
}

// NewLiveness returns a live flag.
func NewLiveness() *Liveness { return &Liveness{} }

// Alive reports whether Kill has not yet been called.
func (l *Liveness) Alive() bool { return !l.dead.Load() }

// Kill marks the flag dead and reports whether this call was the one
// that did it.
func (l *Liveness) Kill() bool { return l.dead.CompareAndSwap(false, true) }
