package jasper

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the Prometheus collectors a Websocket updates. They are
// created unregistered; call Register to expose them.
type Metrics struct {
	FramesReceived *prometheus.CounterVec
	FramesSent     *prometheus.CounterVec
	Heartbeats     prometheus.Counter
	Reconnects     prometheus.Counter
	Sessions       *prometheus.CounterVec
	HandlerErrors  *prometheus.CounterVec
	Connected      prometheus.Gauge
	Sequence       prometheus.Gauge
}

// NewMetrics creates the gateway collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		FramesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jasper",
				Subsystem: "gateway",
				Name:      "frames_received_total",
				Help:      "Frames received from the gateway, by operation",
			},
			[]string{"op"},
		),
		FramesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jasper",
				Subsystem: "gateway",
				Name:      "frames_sent_total",
				Help:      "Frames sent to the gateway, by operation",
			},
			[]string{"op"},
		),
		Heartbeats: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jasper",
			Subsystem: "gateway",
			Name:      "heartbeats_total",
			Help:      "Heartbeat frames sent",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jasper",
			Subsystem: "gateway",
			Name:      "reconnects_total",
			Help:      "Reconnects requested by the gateway",
		}),
		Sessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jasper",
				Subsystem: "gateway",
				Name:      "sessions_ended_total",
				Help:      "Gateway sessions ended, by reason",
			},
			[]string{"reason"},
		),
		HandlerErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jasper",
				Subsystem: "events",
				Name:      "handler_errors_total",
				Help:      "Handler invocations that returned an error or panicked",
			},
			[]string{"event"},
		),
		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "jasper",
			Subsystem: "gateway",
			Name:      "connected",
			Help:      "1 while a gateway session is active",
		}),
		Sequence: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "jasper",
			Subsystem: "gateway",
			Name:      "sequence",
			Help:      "Last dispatch sequence number processed",
		}),
	}
}

// Register adds every collector to r.
func (m *Metrics) Register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.FramesReceived, m.FramesSent, m.Heartbeats, m.Reconnects,
		m.Sessions, m.HandlerErrors, m.Connected, m.Sequence,
	} {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}
