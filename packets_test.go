package jasper

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n uint64) *uint64 { return &n }

func TestEncodeOmitsAbsentFields(t *testing.T) {
	b, err := Encode(Heartbeat, nil, nil, "")
	require.NoError(t, err)
	assert.Equal(t, `{"op":1,"d":null}`, string(b))

	b, err = Encode(Heartbeat, uint64(7), nil, "")
	require.NoError(t, err)
	assert.Equal(t, `{"op":1,"d":7}`, string(b))
}

func TestEncodeDispatchIsCompact(t *testing.T) {
	b, err := Encode(Dispatch, json.RawMessage(`{ "content" : "hi" }`), seq(3), "MESSAGE_CREATE")
	require.NoError(t, err)
	assert.Equal(t, `{"op":0,"d":{"content":"hi"},"s":3,"t":"MESSAGE_CREATE"}`, string(b))
}

func TestRoundTrip(t *testing.T) {
	tt := []struct {
		name  string
		op    Operation
		data  json.RawMessage
		seq   *uint64
		event string
	}{
		{"dispatch", Dispatch, json.RawMessage(`{"id":"1"}`), seq(42), "MESSAGE_CREATE"},
		{"zero sequence", Dispatch, json.RawMessage(`[]`), seq(0), "READY"},
		{"control without data", Reconnect, nil, nil, ""},
		{"hello", Hello, json.RawMessage(`{"heartbeat_interval":41250}`), nil, ""},
		{"unknown op", Operation(42), json.RawMessage(`"x"`), nil, ""},
	}

	for _, test := range tt {
		t.Run(test.name, func(t *testing.T) {
			b, err := Encode(test.op, test.data, test.seq, test.event)
			require.NoError(t, err)

			p, err := Decode(b)
			require.NoError(t, err)

			assert.Equal(t, test.op, p.Operation)
			assert.Equal(t, test.data, p.Data)
			assert.Equal(t, test.seq, p.Sequence)
			assert.Equal(t, test.event, p.Event)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	for name, frame := range map[string]string{
		"malformed":     `{"op":1,`,
		"missing op":    `{"d":{}}`,
		"string op":     `{"op":"10","d":{}}`,
		"fractional":    `{"op":1.5,"d":null}`,
		"not an object": `[1,2]`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(frame))
			var derr *DecodeError
			assert.True(t, errors.As(err, &derr), "got %v", err)
		})
	}
}

func TestDecodeAcceptsNullSequenceAndEvent(t *testing.T) {
	p, err := Decode([]byte(`{"op":11,"d":null,"s":null,"t":null}`))
	require.NoError(t, err)
	assert.Equal(t, HeartbeatAck, p.Operation)
	assert.Nil(t, p.Data)
	assert.Nil(t, p.Sequence)
	assert.Empty(t, p.Event)
}

func TestFrameViews(t *testing.T) {
	decode := func(s string) Frame {
		p, err := Decode([]byte(s))
		require.NoError(t, err)
		f, err := p.Frame()
		require.NoError(t, err)
		return f
	}

	hello := decode(`{"op":10,"d":{"heartbeat_interval":1000}}`)
	require.IsType(t, &HelloFrame{}, hello)
	assert.Equal(t, time.Second, hello.(*HelloFrame).HeartbeatInterval)

	dispatch := decode(`{"op":0,"d":{"a":1},"s":12,"t":"MESSAGE_CREATE"}`)
	require.IsType(t, &DispatchFrame{}, dispatch)
	assert.Equal(t, &DispatchFrame{
		Sequence:    12,
		HasSequence: true,
		Event:       "MESSAGE_CREATE",
		Data:        json.RawMessage(`{"a":1}`),
	}, dispatch)

	invalid := decode(`{"op":9,"d":true}`)
	assert.Equal(t, &InvalidSessionFrame{Resumable: true}, invalid)

	unknown := decode(`{"op":42,"d":{"x":1}}`)
	assert.Equal(t, &ControlFrame{Operation: 42, Data: json.RawMessage(`{"x":1}`)}, unknown)
	assert.False(t, unknown.Op().Known())
}

func TestHelloWithoutIntervalIsRejected(t *testing.T) {
	p, err := Decode([]byte(`{"op":10,"d":{}}`))
	require.NoError(t, err)

	_, err = p.Frame()
	var derr *DecodeError
	assert.True(t, errors.As(err, &derr))
}

func TestOperationString(t *testing.T) {
	assert.Equal(t, "Dispatch", Dispatch.String())
	assert.Equal(t, "HeartbeatAck", HeartbeatAck.String())
	assert.Equal(t, "Operation(42)", Operation(42).String())
}
