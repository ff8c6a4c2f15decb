package jasper

import (
	"sync"
	"sync/atomic"
)

// lifecycle is a one-way "running until stopped" flag shared by the
// heartbeat and the websocket. Stopped is a lock-free read, Done can be
// selected on to wait for the stop.
type lifecycle struct {
	stopped atomic.Bool
	once    sync.Once
	done    chan struct{}
}

func newLifecycle() *lifecycle {
	return &lifecycle{done: make(chan struct{})}
}

// Stop flips the flag. It returns true only for the call that did so.
func (l *lifecycle) Stop() bool {
	first := false
	l.once.Do(func() {
		first = true
		l.stopped.Store(true)
		close(l.done)
	})
	return first
}

// Stopped reports whether Stop has been called.
func (l *lifecycle) Stopped() bool { return l.stopped.Load() }

// Done is closed once Stop has been called.
func (l *lifecycle) Done() <-chan struct{} { return l.done }
