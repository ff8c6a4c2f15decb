package jasper

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionSequenceNeverMovesBackwards(t *testing.T) {
	s := newSession(nil, time.Second)

	_, ok := s.Sequence()
	assert.False(t, ok)

	assert.True(t, s.setSequence(3))
	assert.True(t, s.setSequence(7))
	assert.False(t, s.setSequence(5))

	seq, ok := s.Sequence()
	assert.True(t, ok)
	assert.Equal(t, uint64(7), seq)
}

func TestSessionSequenceConcurrentReads(t *testing.T) {
	s := newSession(nil, time.Second)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := uint64(1); i <= 1000; i++ {
			s.setSequence(i)
		}
	}()
	go func() {
		defer wg.Done()
		var last uint64
		for i := 0; i < 1000; i++ {
			seq, _ := s.Sequence()
			assert.GreaterOrEqual(t, seq, last)
			last = seq
		}
	}()
	wg.Wait()

	seq, _ := s.Sequence()
	assert.Equal(t, uint64(1000), seq)
}
