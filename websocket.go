package jasper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/jasperbot/jasper/events"
	"github.com/jasperbot/jasper/model"
	"github.com/jasperbot/jasper/rest"
)

// ClientName is reported as the browser and device in the handshake.
const ClientName = "jasper"

// WsOptions configures a Websocket. The zero value is usable.
type WsOptions struct {
	// Handshake packet to send to the server. Note that `token` and
	// `properties` will be filled for you.
	Handshake *model.Handshake

	// How long to wait for Hello and for each write before we consider the
	// server to be dead. Defaults to ten seconds.
	Timeout time.Duration

	// Backoff determines how long to wait before reconnecting when the
	// gateway asks us to. Defaults to an exponential backoff.
	Backoff backoff.BackOff

	// Dialer to use for the websocket. Defaults to a dialer with the
	// `timeout` duration.
	Dialer *websocket.Dialer

	// The retriever to get the gateway to connect to. Defaults to a
	// rest.Client with the given `timeout`.
	Gateway GatewayRetriever

	// Gateway protocol version, appended to the gateway URL.
	Version int

	// Debugger struct we log incoming/outgoing messages to.
	Debugger Debugger

	// Logger for connection lifecycle events. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics to update. Defaults to an unregistered set.
	Metrics *Metrics

	// Scheduler runs the heartbeat and the handlers. Defaults to
	// GoScheduler.
	Scheduler Scheduler

	// Headers to send in the websocket handshake.
	Header http.Header
}

func (w *WsOptions) fillDefaults(token string) {
	if w.Timeout == 0 {
		w.Timeout = 10 * time.Second
	}

	if w.Backoff == nil {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = time.Millisecond * 500
		eb.RandomizationFactor = 1
		eb.Multiplier = 2
		eb.MaxInterval = time.Second * 10
		eb.MaxElapsedTime = 0
		w.Backoff = eb
	}

	if w.Dialer == nil {
		w.Dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: w.Timeout,
		}
	}

	if w.Gateway == nil {
		w.Gateway = rest.New(token, rest.DefaultBaseURL, &http.Client{Timeout: w.Timeout})
	}

	if w.Version == 0 {
		w.Version = DefaultVersion
	}

	if w.Handshake == nil {
		w.Handshake = &model.Handshake{LargeThreshold: 250}
	}

	if w.Debugger == nil {
		w.Debugger = NilDebugger{}
	}

	if w.Logger == nil {
		w.Logger = slog.Default()
	}

	if w.Metrics == nil {
		w.Metrics = NewMetrics()
	}

	if w.Scheduler == nil {
		w.Scheduler = GoScheduler{}
	}

	w.Handshake.Compress = false
	w.Handshake.Token = token
	w.Handshake.Properties = model.HandshakeProperties{
		OS:      runtime.GOOS,
		Browser: ClientName,
		Device:  ClientName,
	}
}

// errReconnect ends a session that should be re-established.
var errReconnect = errors.New("jasper/websocket: reconnect requested")

// Websocket is an implementation of the Socket interface.
type Websocket struct {
	opts    *WsOptions
	events  *router
	state   *lifecycle
	started atomic.Bool

	mu   sync.Mutex
	sess *session
	// cancel aborts the lookup and dial of a session being connected.
	cancel context.CancelFunc
}

// On implements Socket.On
func (w *Websocket) On(event string, h Handler) error { return w.events.On(event, h) }

// Connected implements Socket.Connected
func (w *Websocket) Connected() bool {
	w.mu.Lock()
	sess := w.sess
	w.mu.Unlock()

	return sess != nil && sess.Active()
}

// Start implements Socket.Start. It returns nil after Stop, ctx.Err()
// if ctx is cancelled, and otherwise the error that ended the session:
// a *TransportError, a *ProtocolError or a wrapped *CollaboratorError.
// Reconnect requests from the gateway are handled internally.
func (w *Websocket) Start(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	w.events.freeze()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	release := context.AfterFunc(ctx, w.halt)
	defer release()

	for {
		if w.state.Stopped() {
			return ctx.Err()
		}

		err := w.runSession(runCtx)
		w.opts.Metrics.Sessions.WithLabelValues(w.endReason(err)).Inc()

		switch {
		case w.state.Stopped():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil

		case errors.Is(err, errReconnect):
			w.opts.Metrics.Reconnects.Inc()
			delay := w.opts.Backoff.NextBackOff()
			if delay == backoff.Stop {
				return &TransportError{Phase: PhaseConnecting, Op: "reconnect", Err: errors.New("backoff exhausted")}
			}

			w.opts.Logger.Info("reconnecting to gateway", "delay", delay)
			select {
			case <-w.state.Done():
			case <-w.opts.Scheduler.After(delay):
			}

		default:
			w.opts.Debugger.Error(err)
			w.opts.Logger.Error("gateway session ended", "error", err)
			return err
		}
	}
}

// Stop implements Socket.Stop. In-flight handlers are not cancelled; with
// a positive drain Stop waits for them and returns ErrDrainTimeout if any
// are still running when it expires.
func (w *Websocket) Stop(drain time.Duration) error {
	w.halt()
	return w.events.Drain(drain)
}

// halt requests termination and breaks the receive loop out of its read.
func (w *Websocket) halt() {
	w.state.Stop()

	w.mu.Lock()
	sess, cancel := w.sess, w.cancel
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if sess != nil {
		sess.close()
	}
}

// Send implements Socket.Send
func (w *Websocket) Send(op Operation, data interface{}) error {
	w.mu.Lock()
	sess := w.sess
	w.mu.Unlock()

	if sess == nil || !sess.Active() {
		return ErrNotConnected
	}

	return w.send(sess, op, data)
}

func (w *Websocket) send(sess *session, op Operation, data interface{}) error {
	b, err := Encode(op, data, nil, "")
	if err != nil {
		return err
	}

	return w.write(sess, op, b)
}

func (w *Websocket) write(sess *session, op Operation, b []byte) error {
	w.opts.Debugger.Outgoing(b)
	if err := sess.write(b); err != nil {
		return err
	}

	w.opts.Metrics.FramesSent.WithLabelValues(op.String()).Inc()
	return nil
}

// attach makes sess the current session unless a stop was requested.
func (w *Websocket) attach(sess *session) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.Stopped() {
		return false
	}
	w.sess = sess
	return true
}

func (w *Websocket) detach(sess *session) {
	w.mu.Lock()
	if w.sess == sess {
		w.sess = nil
	}
	w.mu.Unlock()

	sess.close()
	w.opts.Metrics.Connected.Set(0)
}

// runSession runs one connection from the gateway lookup to its end.
func (w *Websocket) runSession(ctx context.Context) error {
	gateway, err := w.opts.Gateway.Gateway(ctx)
	if err != nil {
		return fmt.Errorf("jasper/websocket: error looking up gateway: %w", err)
	}

	target, err := gatewayURL(gateway, w.opts.Version)
	if err != nil {
		return &TransportError{Phase: PhaseConnecting, Op: "dial", Err: err}
	}

	conn, _, err := w.opts.Dialer.DialContext(ctx, target, w.opts.Header)
	if err != nil {
		return &TransportError{Phase: PhaseConnecting, Op: "dial", Err: err}
	}

	sess := newSession(conn, w.opts.Timeout)
	if !w.attach(sess) {
		sess.close()
		return nil
	}
	defer w.detach(sess)

	w.opts.Logger.Debug("connected to gateway", "url", target)

	hb, err := w.handshake(sess)
	if err != nil {
		return err
	}
	defer hb.Stop()

	hctx := context.WithoutCancel(ctx)
	return w.receive(hctx, sess, hb)
}

// handshake waits for Hello, starts the heartbeat and identifies.
func (w *Websocket) handshake(sess *session) (*heartbeat, error) {
	conn := sess.Conn()
	conn.SetReadDeadline(time.Now().Add(w.opts.Timeout))
	p, err := w.read(sess, PhaseHandshake)
	if err != nil {
		return nil, err
	}
	conn.SetReadDeadline(time.Time{})

	f, err := p.Frame()
	if err != nil {
		return nil, &ProtocolError{Phase: PhaseHandshake, Operation: p.Operation, Reason: "unusable hello", Err: err}
	}
	hello, ok := f.(*HelloFrame)
	if !ok {
		return nil, &ProtocolError{
			Phase:     PhaseHandshake,
			Operation: p.Operation,
			Reason:    fmt.Sprintf("expected %s, got %s", Hello, p),
		}
	}

	hb := newHeartbeat(hello.HeartbeatInterval, w.opts.Scheduler, sess.Sequence,
		func(b []byte) error {
			if err := w.write(sess, Heartbeat, b); err != nil {
				return err
			}
			w.opts.Metrics.Heartbeats.Inc()
			return nil
		},
		func(err error) {
			sess.fail(&TransportError{Phase: PhaseSession, Op: "heartbeat", Err: err})
		},
	)
	hb.Start()

	if err := w.send(sess, Identify, w.opts.Handshake); err != nil {
		hb.Stop()
		return nil, &TransportError{Phase: PhaseHandshake, Op: "write", Err: err}
	}

	sess.activate()
	w.opts.Backoff.Reset()
	w.opts.Metrics.Connected.Set(1)
	w.opts.Logger.Info("identified with gateway", "heartbeat_interval", hello.HeartbeatInterval)

	return hb, nil
}

// read reads and decodes the next frame of the session.
func (w *Websocket) read(sess *session, phase Phase) (*Payload, error) {
	_, message, err := sess.Conn().ReadMessage()
	if err != nil {
		if cause := sess.failure(); cause != nil {
			return nil, cause
		}
		return nil, &TransportError{Phase: phase, Op: "read", Err: err}
	}

	w.opts.Debugger.Incoming(message)

	p, err := Decode(message)
	if err != nil {
		return nil, &ProtocolError{Phase: phase, Reason: "malformed payload", Err: err}
	}

	w.opts.Metrics.FramesReceived.WithLabelValues(p.Operation.String()).Inc()
	return p, nil
}

// receive is the active session loop. It returns errReconnect when the
// gateway asks for a fresh connection.
func (w *Websocket) receive(ctx context.Context, sess *session, hb *heartbeat) error {
	for {
		p, err := w.read(sess, PhaseSession)
		if err != nil {
			return err
		}

		f, err := p.Frame()
		if err != nil {
			w.opts.Logger.Warn("ignoring unreadable frame", "op", p.Operation, "error", err)
			continue
		}

		switch f := f.(type) {
		case *DispatchFrame:
			if f.HasSequence {
				if sess.setSequence(f.Sequence) {
					w.opts.Metrics.Sequence.Set(float64(f.Sequence))
				} else {
					w.opts.Logger.Warn("ignoring stale sequence", "event", f.Event, "sequence", f.Sequence)
				}
			}
			w.events.Dispatch(ctx, &events.Event{Name: f.Event, Sequence: f.Sequence, Data: f.Data})

		case *InvalidSessionFrame:
			sess.close()
			return &ProtocolError{
				Phase:     PhaseSession,
				Operation: InvalidSession,
				Reason:    fmt.Sprintf("session invalidated by gateway (resumable=%t)", f.Resumable),
				Err:       ErrInvalidSession,
			}

		case *ControlFrame:
			switch f.Operation {
			case Reconnect:
				w.opts.Logger.Info("gateway requested reconnect")
				return errReconnect
			case Heartbeat:
				// The gateway may ask for a beat outside the interval.
				if err := hb.beat(); err != nil {
					return &TransportError{Phase: PhaseSession, Op: "heartbeat", Err: err}
				}
			case HeartbeatAck:
				w.opts.Logger.Debug("heartbeat acknowledged")
			default:
				w.opts.Logger.Info("ignoring operation", "op", f.Operation)
			}

		default:
			w.opts.Logger.Info("ignoring operation", "op", f.Op())
		}
	}
}

func (w *Websocket) endReason(err error) string {
	var (
		terr *TransportError
		perr *ProtocolError
		cerr *CollaboratorError
	)

	switch {
	case w.state.Stopped():
		return "stopped"
	case errors.Is(err, errReconnect):
		return "reconnect"
	case errors.Is(err, ErrInvalidSession):
		return "invalid_session"
	case errors.As(err, &perr):
		return "protocol"
	case errors.As(err, &cerr):
		return "gateway"
	case errors.As(err, &terr):
		return "transport"
	default:
		return "unknown"
	}
}
