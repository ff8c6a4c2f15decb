package jasper

import "time"

// A Scheduler is the execution context the websocket runs its background
// work on: the heartbeat loop, handler invocations and reconnect delays.
// Tests substitute one with hand-driven time.
type Scheduler interface {
	// Go runs fn concurrently.
	Go(fn func())
	// NewTicker returns a ticker firing every d, measured from when it
	// was created rather than from when the last tick was consumed.
	NewTicker(d time.Duration) Ticker
	// After returns a channel that receives once d has elapsed.
	After(d time.Duration) <-chan time.Time
}

// Ticker is the subset of *time.Ticker the heartbeat uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// GoScheduler runs work on goroutines against the wall clock.
type GoScheduler struct{}

// Go implements Scheduler.Go
func (GoScheduler) Go(fn func()) { go fn() }

// NewTicker implements Scheduler.NewTicker
func (GoScheduler) NewTicker(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} }

// After implements Scheduler.After
func (GoScheduler) After(d time.Duration) <-chan time.Time { return time.After(d) }

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }
