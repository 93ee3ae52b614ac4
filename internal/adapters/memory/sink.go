// Package memory provides an in-memory event sink used by tests and
// ephemeral environments.
package memory

import (
	"sync"

	"github.com/aretw0/tether/pkg/domain"
	"github.com/aretw0/tether/pkg/ports"
)

// Sink records every published event in order.
type Sink struct {
	mu     sync.Mutex
	events []domain.RegistryEvent
}

var _ ports.EventSink = (*Sink)(nil)

func New() *Sink { return &Sink{} }

func (s *Sink) Publish(ev domain.RegistryEvent) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

// Events returns a copy of everything published so far.
func (s *Sink) Events() []domain.RegistryEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.RegistryEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Reset clears the recorded events.
func (s *Sink) Reset() {
	s.mu.Lock()
	s.events = nil
	s.mu.Unlock()
}
