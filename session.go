package jasper

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// session is the state of one gateway connection. A reconnect builds a
// new session, so the sequence number never moves backwards within one.
type session struct {
	mu       sync.Mutex
	running  bool
	active   bool
	sequence uint64
	hasSeq   bool
	conn     *websocket.Conn
	// cause is the first failure reported from outside the receive loop.
	cause error

	// writeMu serialises writers on conn; gorilla supports only one.
	writeMu   sync.Mutex
	closeOnce sync.Once
	timeout   time.Duration
}

func newSession(conn *websocket.Conn, timeout time.Duration) *session {
	return &session{conn: conn, running: true, timeout: timeout}
}

// Sequence returns the last sequence number seen, if any.
func (s *session) Sequence() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sequence, s.hasSeq
}

// setSequence records the sequence of a dispatch frame. It reports false
// and keeps the current value if seq is older.
func (s *session) setSequence(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasSeq && seq < s.sequence {
		return false
	}
	s.sequence, s.hasSeq = seq, true
	return true
}

// Active reports whether the handshake completed and the transport is
// still open.
func (s *session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && s.active
}

func (s *session) activate() {
	s.mu.Lock()
	s.active = true
	s.mu.Unlock()
}

// Conn returns the transport. It is fixed for the life of the session.
func (s *session) Conn() *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// write sends one text frame.
func (s *session) write(b []byte) error {
	s.mu.Lock()
	conn, running := s.conn, s.running
	s.mu.Unlock()

	if !running {
		return websocket.ErrCloseSent
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(s.timeout))
	return conn.WriteMessage(websocket.TextMessage, b)
}

// fail records err as the reason the session ended and closes it.
func (s *session) fail(err error) {
	s.mu.Lock()
	if s.cause == nil {
		s.cause = err
	}
	s.mu.Unlock()

	s.close()
}

func (s *session) failure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cause
}

// close shuts the transport. Only the first call has any effect.
func (s *session) close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.running = false
		conn := s.conn
		s.mu.Unlock()

		// Say goodbye only if no write is in flight; closing the conn
		// below unblocks one that is.
		if s.writeMu.TryLock() {
			conn.SetWriteDeadline(time.Now().Add(time.Second))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			s.writeMu.Unlock()
		}

		conn.Close()
	})
}
