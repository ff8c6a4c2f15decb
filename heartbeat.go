package jasper

import "time"

// heartbeat keeps a gateway session alive by sending the last sequence
// number on a fixed interval. It owns its own lifecycle and never holds
// the session lock longer than a sequence read.
type heartbeat struct {
	interval time.Duration
	sched    Scheduler
	state    *lifecycle

	// sequence reads the session's latest sequence number.
	sequence func() (uint64, bool)
	// send writes one encoded frame on the connection.
	send func(b []byte) error
	// fail is called once, from the tick loop, when a send fails.
	fail func(err error)

	done chan struct{}
}

func newHeartbeat(
	interval time.Duration,
	sched Scheduler,
	sequence func() (uint64, bool),
	send func([]byte) error,
	fail func(error),
) *heartbeat {
	return &heartbeat{
		interval: interval,
		sched:    sched,
		state:    newLifecycle(),
		sequence: sequence,
		send:     send,
		fail:     fail,
		done:     make(chan struct{}),
	}
}

// Start moves the heartbeat from idle to running. It must be called at
// most once.
func (h *heartbeat) Start() {
	h.sched.Go(h.run)
}

// Stop suppresses all further beats. It is idempotent, safe from any
// goroutine, and does not wait for a beat that is already being written.
func (h *heartbeat) Stop() { h.state.Stop() }

func (h *heartbeat) run() {
	defer close(h.done)

	ticker := h.sched.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.state.Done():
			return
		case <-ticker.C():
		}

		if h.state.Stopped() {
			return
		}

		if err := h.beat(); err != nil {
			h.state.Stop()
			h.fail(err)
			return
		}
	}
}

// beat sends one Heartbeat frame carrying the sequence, or null when no
// dispatch has been seen yet.
func (h *heartbeat) beat() error {
	var data interface{}
	if seq, ok := h.sequence(); ok {
		data = seq
	}

	b, err := Encode(Heartbeat, data, nil, "")
	if err != nil {
		return err
	}

	return h.send(b)
}
