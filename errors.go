package jasper

import (
	"errors"
	"fmt"

	"github.com/jasperbot/jasper/rest"
)

var (
	// ErrInvalidSession is wrapped by the *ProtocolError Start returns
	// when the gateway invalidates the session.
	ErrInvalidSession = errors.New("jasper: invalid session")
	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("jasper: websocket already started")
	// ErrRegistryFrozen is returned by On once Start has been called.
	ErrRegistryFrozen = errors.New("jasper: handlers cannot be registered after start")
	// ErrNotConnected is returned by Send when no session is active.
	ErrNotConnected = errors.New("jasper: not connected")
	// ErrDrainTimeout is returned by Stop when handlers were still
	// running after the drain timeout.
	ErrDrainTimeout = errors.New("jasper: timed out draining handlers")
)

// CollaboratorError is the error returned by the REST collaborator, for
// example when looking up the gateway URL fails.
type CollaboratorError = rest.Error

// Phase is the point of the connection lifecycle an error happened in.
type Phase int

const (
	// PhaseConnecting covers looking up the gateway and dialing it.
	PhaseConnecting Phase = iota
	// PhaseHandshake covers awaiting Hello and sending Identify.
	PhaseHandshake
	// PhaseSession covers the active receive loop.
	PhaseSession
)

func (p Phase) String() string {
	switch p {
	case PhaseConnecting:
		return "connecting"
	case PhaseHandshake:
		return "handshake"
	case PhaseSession:
		return "session"
	default:
		return "unknown"
	}
}

// TransportError is a failure to open, read or write the connection.
type TransportError struct {
	Phase Phase
	// Op is "dial", "read", "write" or "heartbeat".
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("jasper/websocket: %s failed during %s: %s", e.Op, e.Phase, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError is a frame the client cannot continue after: a malformed
// payload, an unexpected operation during the handshake, or an invalid
// session.
type ProtocolError struct {
	Phase     Phase
	Operation Operation
	Reason    string
	Err       error
}

func (e *ProtocolError) Error() string {
	msg := fmt.Sprintf("jasper/websocket: protocol error during %s: %s", e.Phase, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// HandlerError is reported when a registered handler returns an error or
// panics. It is only ever delivered to the Debugger and the logger.
type HandlerError struct {
	Event string
	Err   error
	// Panic holds the recovered value if the handler panicked.
	Panic interface{}
}

func (e *HandlerError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("jasper/events: handler for %s panicked: %v", e.Event, e.Panic)
	}
	return fmt.Sprintf("jasper/events: handler for %s failed: %s", e.Event, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }
