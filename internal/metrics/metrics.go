// Package metrics exposes the registry event feed as Prometheus series.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/tether/pkg/domain"
	"github.com/aretw0/tether/pkg/ports"
)

// Sink implements ports.EventSink by counting feed events.
type Sink struct {
	events    *prometheus.CounterVec
	terminals *prometheus.CounterVec
	tracked   prometheus.Gauge
}

var _ ports.EventSink = (*Sink)(nil)

// New registers the collectors on reg and returns the sink. Use
// prometheus.DefaultRegisterer unless tests need isolation.
func New(reg prometheus.Registerer) *Sink {
	s := &Sink{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tether_registry_events_total",
				Help: "Registry feed events by type.",
			},
			[]string{"type"},
		),
		terminals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tether_terminal_events_total",
				Help: "Terminal lifecycle events by strategy.",
			},
			[]string{"strategy"},
		),
		tracked: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tether_tracked_objects",
				Help: "Live side-table entries.",
			},
		),
	}
	reg.MustRegister(s.events, s.terminals, s.tracked)
	return s
}

func (s *Sink) Publish(ev domain.RegistryEvent) {
	s.events.WithLabelValues(string(ev.Type)).Inc()

	switch ev.Type {
	case domain.EventTracked:
		s.tracked.Inc()
	case domain.EventCollected:
		s.tracked.Dec()
		s.terminals.WithLabelValues(string(ev.Strategy)).Inc()
	case domain.EventReleased:
		// The entry survives until collection; only the terminal
		// counter moves here.
		s.terminals.WithLabelValues(string(ev.Strategy)).Inc()
	}
}
