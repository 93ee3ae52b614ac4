package tether

import (
	"sync"
	"time"

	"github.com/aretw0/tether/pkg/domain"
	"github.com/aretw0/tether/pkg/ports"
)

// Signal is a lifecycle publisher: it broadcasts exactly one terminal event
// tied to an object's end of life, then stays permanently terminal. A signal
// is shared by every caller of SignalFor for the same (object, strategy)
// pair; its state is guarded by the owning registry's mutex.
type Signal struct {
	registry *Registry
	strategy domain.Strategy
	objectID uint64
	name     string

	done    chan struct{}
	subs    map[int]chan domain.LifecycleEvent
	nextSub int

	terminal bool
	event    domain.LifecycleEvent
}

func newSignal(r *Registry, e *entry, strategy domain.Strategy) *Signal {
	return &Signal{
		registry: r,
		strategy: strategy,
		objectID: e.id,
		name:     e.name,
		done:     make(chan struct{}),
		subs:     make(map[int]chan domain.LifecycleEvent),
	}
}

// Strategy reports the capability this signal was created under.
func (s *Signal) Strategy() domain.Strategy { return s.strategy }

// Done returns a channel closed when the terminal event has fired. It is
// shared by all callers and carries no payload; use Subscribe for the event
// itself.
func (s *Signal) Done() <-chan struct{} { return s.done }

// Terminal reports whether the terminal event already fired.
func (s *Signal) Terminal() bool {
	s.registry.mu.Lock()
	defer s.registry.mu.Unlock()
	return s.terminal
}

// Subscribe returns a channel that delivers exactly one LifecycleEvent and
// is then closed. Subscribing after the terminal event delivers it
// immediately. Cancelling one subscription never affects the others.
func (s *Signal) Subscribe() (<-chan domain.LifecycleEvent, ports.CancelFunc) {
	// Capacity one: each subscriber channel sees at most one send, ever,
	// so delivery under the registry mutex cannot block.
	ch := make(chan domain.LifecycleEvent, 1)

	s.registry.mu.Lock()
	if s.terminal {
		ev := s.event
		s.registry.mu.Unlock()
		ch <- ev
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ev := domain.RegistryEvent{
		Type:     domain.EventSubscribed,
		ObjectID: s.objectID,
		Name:     s.name,
		Strategy: s.strategy,
		At:       time.Now().UTC(),
	}
	s.registry.mu.Unlock()

	s.registry.publish(ev)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.registry.mu.Lock()
			delete(s.subs, id)
			s.registry.mu.Unlock()
		})
	}
	return ch, cancel
}

// fireLocked delivers the terminal event to every subscriber and marks the
// signal terminal. Caller holds the registry mutex; firing twice is a no-op,
// which is what resolves the create/terminate race in the caller's favor.
func (s *Signal) fireLocked(ev domain.LifecycleEvent) {
	if s.terminal {
		return
	}
	s.terminal = true
	s.event = ev
	close(s.done)
	for id, ch := range s.subs {
		ch <- ev
		close(ch)
		delete(s.subs, id)
	}
}
