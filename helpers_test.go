package jasper

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// fakeTicker only fires when the test sends on c.
type fakeTicker struct {
	d       time.Duration
	c       chan time.Time
	stopped atomic.Bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.c }
func (t *fakeTicker) Stop()               { t.stopped.Store(true) }

// tick fires the ticker, reporting false if nobody was listening.
func (t *fakeTicker) tick() bool {
	select {
	case t.c <- time.Now():
		return true
	case <-time.After(100 * time.Millisecond):
		return false
	}
}

// fakeScheduler runs work on goroutines but hands every ticker to the
// test, and lets reconnect delays elapse immediately.
type fakeScheduler struct {
	created chan *fakeTicker
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{created: make(chan *fakeTicker, 16)}
}

func (s *fakeScheduler) Go(fn func()) { go fn() }

func (s *fakeScheduler) NewTicker(d time.Duration) Ticker {
	t := &fakeTicker{d: d, c: make(chan time.Time)}
	s.created <- t
	return t
}

func (s *fakeScheduler) After(d time.Duration) <-chan time.Time {
	c := make(chan time.Time, 1)
	c <- time.Now()
	return c
}

func (s *fakeScheduler) nextTicker(timeout time.Duration) *fakeTicker {
	select {
	case t := <-s.created:
		return t
	case <-time.After(timeout):
		return nil
	}
}

type recordingDebugger struct {
	mu       sync.Mutex
	incoming [][]byte
	outgoing [][]byte
	errs     []error
}

func (r *recordingDebugger) Incoming(b []byte) {
	r.mu.Lock()
	r.incoming = append(r.incoming, b)
	r.mu.Unlock()
}

func (r *recordingDebugger) Outgoing(b []byte) {
	r.mu.Lock()
	r.outgoing = append(r.outgoing, b)
	r.mu.Unlock()
}

func (r *recordingDebugger) Error(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
}

func (r *recordingDebugger) errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
