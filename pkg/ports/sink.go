package ports

import "github.com/aretw0/tether/pkg/domain"

// EventSink receives events from the registry. Implementations must be
// lightweight and non-blocking: Publish is called with the registry mutex
// released but on hot paths, and must not panic.
type EventSink interface {
	Publish(domain.RegistryEvent)
}

// MultiSink fans one feed out to several sinks in order.
type MultiSink []EventSink

func (m MultiSink) Publish(ev domain.RegistryEvent) {
	for _, s := range m {
		s.Publish(ev)
	}
}
