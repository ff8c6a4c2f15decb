// Package jasper is a client for the Discord gateway: it holds a
// websocket session open, keeps it alive with heartbeats, and dispatches
// inbound events to registered handlers.
package jasper

import (
	"context"
	"time"

	"github.com/jasperbot/jasper/events"
)

// Handler is re-exported from the events package for convenience.
type Handler = events.Handler

// The Socket represents a connection to a Discord server. All methods on
// the socket are safe for concurrent use.
type Socket interface {
	// On attaches a handler to an event. Handlers must be attached before
	// Start.
	On(event string, h Handler) error

	// Start connects and blocks until the session ends.
	Start(ctx context.Context) error

	// Stop ends the session and waits up to drain for running handlers.
	Stop(drain time.Duration) error

	// Send dispatches an event down the Discord socket. It returns an error
	// if there was any issue in sending it.
	Send(op Operation, data interface{}) error

	// Connected reports whether a session is currently active.
	Connected() bool
}

var _ Socket = (*Websocket)(nil)

// New creates a connection to the Discord servers. Options may be nil if
// you want to use the defaults. Nothing is dialed until Start.
func New(token string, options *WsOptions) *Websocket {
	if options == nil {
		options = &WsOptions{}
	}
	options.fillDefaults(token)

	return &Websocket{
		opts:   options,
		events: newRouter(options.Scheduler, options.Logger, options.Debugger, options.Metrics),
		state:  newLifecycle(),
	}
}
