// Package events defines the handler contract for gateway dispatch events
// and typed adapters for the events jasper consumes.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jasperbot/jasper/model"
)

// Event names, the "t" key in Discord dispatch payloads.
const (
	Ready         = "READY"
	MessageCreate = "MESSAGE_CREATE"
	MessageUpdate = "MESSAGE_UPDATE"
	GuildCreate   = "GUILD_CREATE"
)

// Event is a dispatched gateway event. Data is the still-marshalled "d"
// value of the dispatch frame.
type Event struct {
	Name     string
	Sequence uint64
	Data     json.RawMessage
}

// Handler defines a type that can be registered on a socket to listen for
// an event being broadcasted.
type Handler interface {
	// Invoke is called with the dispatched event. It may return an error if
	// unmarshalling or handling fails; the error is reported but never
	// affects the connection.
	Invoke(ctx context.Context, e *Event) error
}

// HandlerFunc adapts a plain function to a Handler.
type HandlerFunc func(ctx context.Context, e *Event) error

// Invoke implements Handler.Invoke
func (f HandlerFunc) Invoke(ctx context.Context, e *Event) error { return f(ctx, e) }

// OnMessage returns a Handler that decodes the event payload as a message.
// Register it against MessageCreate or MessageUpdate.
func OnMessage(fn func(ctx context.Context, m *model.Message) error) Handler {
	return HandlerFunc(func(ctx context.Context, e *Event) error {
		m := &model.Message{}
		if err := decode(e, m); err != nil {
			return err
		}
		return fn(ctx, m)
	})
}

// OnReady returns a Handler that decodes the READY payload.
func OnReady(fn func(ctx context.Context, r *model.Ready) error) Handler {
	return HandlerFunc(func(ctx context.Context, e *Event) error {
		r := &model.Ready{}
		if err := decode(e, r); err != nil {
			return err
		}
		return fn(ctx, r)
	})
}

func decode(e *Event, v interface{}) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("jasper/events: error unpacking %s: %w", e.Name, err)
	}
	return nil
}
