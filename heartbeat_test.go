package jasper

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type beatRecorder struct {
	mu     sync.Mutex
	seq    uint64
	hasSeq bool
	sent   chan string
	err    error
	failed chan error
}

func newBeatRecorder() *beatRecorder {
	return &beatRecorder{sent: make(chan string, 16), failed: make(chan error, 1)}
}

func (b *beatRecorder) sequence() (uint64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq, b.hasSeq
}

func (b *beatRecorder) setSequence(n uint64) {
	b.mu.Lock()
	b.seq, b.hasSeq = n, true
	b.mu.Unlock()
}

func (b *beatRecorder) send(frame []byte) error {
	b.mu.Lock()
	err := b.err
	b.mu.Unlock()
	if err != nil {
		return err
	}
	b.sent <- string(frame)
	return nil
}

func (b *beatRecorder) fail(err error) { b.failed <- err }

func (b *beatRecorder) next(t *testing.T) string {
	select {
	case s := <-b.sent:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no heartbeat sent")
		return ""
	}
}

func TestHeartbeatCarriesSequence(t *testing.T) {
	sched := newFakeScheduler()
	rec := newBeatRecorder()
	hb := newHeartbeat(time.Second, sched, rec.sequence, rec.send, rec.fail)
	hb.Start()
	defer hb.Stop()

	ticker := sched.nextTicker(time.Second)
	require.NotNil(t, ticker)
	assert.Equal(t, time.Second, ticker.d)

	require.True(t, ticker.tick())
	assert.Equal(t, `{"op":1,"d":null}`, rec.next(t))

	rec.setSequence(3)
	rec.setSequence(7)
	require.True(t, ticker.tick())
	assert.Equal(t, `{"op":1,"d":7}`, rec.next(t))
}

func TestHeartbeatStopSuppressesTicks(t *testing.T) {
	sched := newFakeScheduler()
	rec := newBeatRecorder()
	hb := newHeartbeat(time.Second, sched, rec.sequence, rec.send, rec.fail)
	hb.Start()

	ticker := sched.nextTicker(time.Second)
	require.NotNil(t, ticker)

	hb.Stop()
	hb.Stop()

	select {
	case <-hb.done:
	case <-time.After(time.Second):
		t.Fatal("heartbeat loop did not exit")
	}

	for i := 0; i < 3; i++ {
		assert.False(t, ticker.tick())
	}
	assert.Empty(t, rec.sent)
	assert.True(t, ticker.stopped.Load())
}

func TestHeartbeatStopBeforeStart(t *testing.T) {
	sched := newFakeScheduler()
	rec := newBeatRecorder()
	hb := newHeartbeat(time.Second, sched, rec.sequence, rec.send, rec.fail)

	hb.Stop()
	hb.Start()

	select {
	case <-hb.done:
	case <-time.After(time.Second):
		t.Fatal("heartbeat loop did not exit")
	}
	assert.Empty(t, rec.sent)
}

func TestHeartbeatSendFailureStopsAndReports(t *testing.T) {
	sched := newFakeScheduler()
	rec := newBeatRecorder()
	rec.err = errors.New("broken pipe")
	hb := newHeartbeat(time.Second, sched, rec.sequence, rec.send, rec.fail)
	hb.Start()

	ticker := sched.nextTicker(time.Second)
	require.NotNil(t, ticker)
	require.True(t, ticker.tick())

	select {
	case err := <-rec.failed:
		assert.EqualError(t, err, "broken pipe")
	case <-time.After(time.Second):
		t.Fatal("failure was not reported")
	}

	<-hb.done
	assert.True(t, hb.state.Stopped())
	assert.False(t, ticker.tick())
}

func TestHeartbeatFirstTickWaitsForInterval(t *testing.T) {
	rec := newBeatRecorder()
	hb := newHeartbeat(time.Second, GoScheduler{}, rec.sequence, rec.send, rec.fail)

	start := time.Now()
	hb.Start()
	defer hb.Stop()

	rec.next(t)
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, time.Second)
	assert.Less(t, elapsed, time.Second+250*time.Millisecond)
}
