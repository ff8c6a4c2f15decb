package jasper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jasperbot/jasper/events"
)

const tracerName = "github.com/jasperbot/jasper"

// router maps event names to handlers and fans each dispatched event out
// to all of them. The registry is frozen before the websocket connects,
// after which it is only read.
type router struct {
	mu       sync.RWMutex
	frozen   bool
	handlers map[string][]events.Handler

	sched    Scheduler
	logger   *slog.Logger
	debugger Debugger
	metrics  *Metrics
	tracer   trace.Tracer

	inflight inflight
}

func newRouter(sched Scheduler, logger *slog.Logger, debugger Debugger, metrics *Metrics) *router {
	return &router{
		handlers: make(map[string][]events.Handler),
		sched:    sched,
		logger:   logger,
		debugger: debugger,
		metrics:  metrics,
		tracer:   otel.Tracer(tracerName),
	}
}

// On attaches a Handler so that it's called every time the event is
// received.
func (r *router) On(event string, h events.Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrRegistryFrozen
	}
	r.handlers[event] = append(r.handlers[event], h)
	return nil
}

func (r *router) freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Dispatch starts every handler registered for the event and returns
// without waiting for them. It returns how many were started.
func (r *router) Dispatch(ctx context.Context, e *events.Event) int {
	r.mu.RLock()
	list := r.handlers[e.Name]
	r.mu.RUnlock()

	if len(list) == 0 {
		r.logger.Debug("no handlers registered", "event", e.Name)
		return 0
	}

	for _, h := range list {
		h := h
		r.inflight.add()
		r.sched.Go(func() {
			defer r.inflight.done()
			r.invoke(ctx, h, e)
		})
	}

	return len(list)
}

func (r *router) invoke(ctx context.Context, h events.Handler, e *events.Event) {
	ctx, span := r.tracer.Start(ctx, "jasper.dispatch "+e.Name, trace.WithAttributes(
		attribute.String("jasper.event", e.Name),
		attribute.Int64("jasper.sequence", int64(e.Sequence)),
	))
	defer span.End()

	var herr *HandlerError
	func() {
		defer func() {
			if p := recover(); p != nil {
				herr = &HandlerError{Event: e.Name, Err: fmt.Errorf("panic: %v", p), Panic: p}
			}
		}()
		if err := h.Invoke(ctx, e); err != nil {
			herr = &HandlerError{Event: e.Name, Err: err}
		}
	}()

	if herr == nil {
		return
	}

	span.RecordError(herr)
	span.SetStatus(codes.Error, herr.Error())
	r.metrics.HandlerErrors.WithLabelValues(e.Name).Inc()
	r.logger.Warn("event handler failed", "event", e.Name, "error", herr)
	r.debugger.Error(herr)
}

// Drain waits up to timeout for in-flight handlers. A zero timeout does
// not wait at all.
func (r *router) Drain(timeout time.Duration) error {
	if timeout <= 0 {
		return nil
	}

	select {
	case <-r.inflight.idle():
		return nil
	case <-r.sched.After(timeout):
		return ErrDrainTimeout
	}
}

// inflight counts running handler invocations.
type inflight struct {
	mu   sync.Mutex
	n    int
	zero chan struct{}
}

var closedChan = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

func (f *inflight) add() {
	f.mu.Lock()
	if f.n == 0 {
		f.zero = make(chan struct{})
	}
	f.n++
	f.mu.Unlock()
}

func (f *inflight) done() {
	f.mu.Lock()
	f.n--
	if f.n == 0 {
		close(f.zero)
	}
	f.mu.Unlock()
}

// idle is closed once no invocations are running.
func (f *inflight) idle() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.n == 0 {
		return closedChan
	}
	return f.zero
}
