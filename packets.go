package jasper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// An Operation is contained in a Payload and defines what should occur
// as a result of that payload.
type Operation int

const (
	// dispatches an event
	Dispatch Operation = iota
	// used for ping checking
	Heartbeat
	// used for client handshake
	Identify
	// used to update the client status
	StatusUpdate
	// used to join/move/leave voice channels
	VoiceStatusUpdate
	// used for voice ping checking
	VoiceServerPing
	// used to resume a closed connection
	Resume
	// used to redirect clients to a new gateway
	Reconnect
	// used to request guild members
	RequestGuildMembers
	// used to notify client they have an invalid session id
	InvalidSession
	// sent immediately after connecting, carries the heartbeat interval
	Hello
	// sent in response to receiving a heartbeat
	HeartbeatAck
)

var operationNames = [...]string{
	"Dispatch", "Heartbeat", "Identify", "StatusUpdate", "VoiceStatusUpdate",
	"VoiceServerPing", "Resume", "Reconnect", "RequestGuildMembers",
	"InvalidSession", "Hello", "HeartbeatAck",
}

func (o Operation) String() string {
	if o >= 0 && int(o) < len(operationNames) {
		return operationNames[o]
	}
	return "Operation(" + strconv.Itoa(int(o)) + ")"
}

// Known reports whether o is one of the defined operations.
func (o Operation) Known() bool { return o >= 0 && int(o) < len(operationNames) }

// A Payload structure is the basic structure in which information is sent
// to and from the Discord gateway.
type Payload struct {
	Operation Operation       `json:"op"`
	Data      json.RawMessage `json:"d"`
	// Provided only for Dispatch operations:
	Sequence *uint64 `json:"s,omitempty"`
	Event    string  `json:"t,omitempty"`
}

// DecodeError is returned when an inbound frame is not a structurally
// valid payload.
type DecodeError struct {
	Frame []byte
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("jasper/packets: error unpacking payload: %s", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

var jsonNull = []byte("null")

// Encode marshals an envelope into its compact wire form. A nil seq and an
// empty event are left out of the output; data may be nil, a
// json.RawMessage or any value encoding/json can marshal.
func Encode(op Operation, data interface{}, seq *uint64, event string) ([]byte, error) {
	raw, err := marshalData(data)
	if err != nil {
		return nil, err
	}

	return json.Marshal(&Payload{Operation: op, Data: raw, Sequence: seq, Event: event})
}

func marshalData(data interface{}) (json.RawMessage, error) {
	switch d := data.(type) {
	case nil:
		return jsonNull, nil
	case json.RawMessage:
		if d == nil {
			return jsonNull, nil
		}
		return d, nil
	default:
		b, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("jasper/packets: error marshalling %T: %w", data, err)
		}
		return b, nil
	}
}

// Decode parses a frame received from the gateway. Decoding is purely
// structural: an operation code jasper does not know about is returned
// as-is, but a missing or non-integral "op" is a *DecodeError.
func Decode(b []byte) (*Payload, error) {
	var raw struct {
		Op *int64          `json:"op"`
		D  json.RawMessage `json:"d"`
		S  *uint64         `json:"s"`
		T  *string         `json:"t"`
	}

	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, &DecodeError{Frame: b, Err: err}
	}
	if raw.Op == nil {
		return nil, &DecodeError{Frame: b, Err: fmt.Errorf(`missing "op"`)}
	}

	p := &Payload{Operation: Operation(*raw.Op), Sequence: raw.S}
	if len(raw.D) > 0 && !bytes.Equal(raw.D, jsonNull) {
		p.Data = raw.D
	}
	if raw.T != nil {
		p.Event = *raw.T
	}

	return p, nil
}

// A Frame is the typed view of a decoded payload. It is one of
// *DispatchFrame, *HelloFrame, *InvalidSessionFrame or *ControlFrame.
type Frame interface {
	Op() Operation
}

// DispatchFrame carries an application event.
type DispatchFrame struct {
	Sequence    uint64
	HasSequence bool
	Event       string
	Data        json.RawMessage
}

// Op implements Frame.Op
func (*DispatchFrame) Op() Operation { return Dispatch }

// HelloFrame opens a session and sets the heartbeat interval.
type HelloFrame struct {
	HeartbeatInterval time.Duration
}

// Op implements Frame.Op
func (*HelloFrame) Op() Operation { return Hello }

// InvalidSessionFrame tells the client its session cannot continue.
type InvalidSessionFrame struct {
	// Resumable is the "d" flag sent by the server. jasper never resumes.
	Resumable bool
}

// Op implements Frame.Op
func (*InvalidSessionFrame) Op() Operation { return InvalidSession }

// ControlFrame is every other operation, with its data left opaque.
type ControlFrame struct {
	Operation Operation
	Data      json.RawMessage
}

// Op implements Frame.Op
func (c *ControlFrame) Op() Operation { return c.Operation }

// Frame returns the typed view of the payload. It fails only when the
// data of a Hello frame is unusable.
func (p *Payload) Frame() (Frame, error) {
	switch p.Operation {
	case Dispatch:
		f := &DispatchFrame{Event: p.Event, Data: p.Data}
		if p.Sequence != nil {
			f.Sequence, f.HasSequence = *p.Sequence, true
		}
		return f, nil

	case Hello:
		var hello struct {
			HeartbeatInterval *uint64 `json:"heartbeat_interval"`
		}
		if p.Data == nil {
			return nil, &DecodeError{Err: fmt.Errorf("hello without data")}
		}
		if err := json.Unmarshal(p.Data, &hello); err != nil {
			return nil, &DecodeError{Frame: p.Data, Err: err}
		}
		if hello.HeartbeatInterval == nil || *hello.HeartbeatInterval == 0 {
			return nil, &DecodeError{Frame: p.Data, Err: fmt.Errorf("hello without heartbeat_interval")}
		}
		return &HelloFrame{
			HeartbeatInterval: time.Duration(*hello.HeartbeatInterval) * time.Millisecond,
		}, nil

	case InvalidSession:
		f := &InvalidSessionFrame{}
		// The flag is optional, a malformed one reads as false.
		_ = json.Unmarshal(p.Data, &f.Resumable)
		return f, nil

	default:
		return &ControlFrame{Operation: p.Operation, Data: p.Data}, nil
	}
}

func (p *Payload) String() string {
	if p.Operation == Dispatch {
		return fmt.Sprintf("%s(%s)", p.Operation, p.Event)
	}
	return p.Operation.String()
}
