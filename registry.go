package tether

import (
	"log/slog"
	"runtime"
	"sync"
	"time"
	"weak"

	"github.com/aretw0/tether/internal/logging"
	"github.com/aretw0/tether/pkg/domain"
	"github.com/aretw0/tether/pkg/ports"
)

// Registry is the process-wide side table mapping object identity to
// lifecycle state. It never extends a tracked object's lifetime: entries are
// keyed by weak pointers and removed by a runtime cleanup when the object is
// reclaimed.
//
// All entry and signal state is guarded by a single mutex. Terminal events
// fire under the same mutex that guards creation, so a signal can never be
// created "fresh" after its object already ended; late callers get an
// already-terminal signal instead.
type Registry struct {
	mu      sync.Mutex
	entries map[any]*entry // weak.Pointer[T] boxed as any -> entry
	nextID  uint64

	sinks  []ports.EventSink
	logger *slog.Logger
}

// entry is the per-object record. It must never hold a strong reference to
// the tracked object.
type entry struct {
	id        uint64
	name      string
	trackedAt time.Time

	signals map[domain.Strategy]*Signal

	// end is closed when the object's lifetime ends, by either strategy,
	// whichever happens first. Property streams complete on it.
	end   chan struct{}
	ended bool

	released  bool
	collected bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for registry-internal events.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithSink attaches event sinks. Every registry action (track, release,
// collect, subscribe) is published to each sink, in order.
func WithSink(sinks ...ports.EventSink) Option {
	return func(r *Registry) {
		r.sinks = append(r.sinks, sinks...)
	}
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[any]*entry),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TrackOption configures an object's entry when it is first tracked.
// On later calls for the same object it has no effect.
type TrackOption func(*entry)

// Named labels the entry on the event feed and introspection surface.
func Named(name string) TrackOption {
	return func(e *entry) {
		e.name = name
	}
}

// SignalFor returns the lifecycle signal for obj under the given strategy,
// creating and caching it on first use. The create-if-absent step is atomic:
// concurrent callers for the same object observe the same signal instance.
//
// A release-strategy signal fires when Release is called for obj. A
// collect-strategy signal fires when the runtime reclaims obj. If obj is
// reclaimed while a release signal never fired, that signal fires at
// collection time with the terminal event reporting StrategyCollect as the
// actual cause, so no signal ever goes silent.
//
// obj must be a non-nil pointer; identity is the (type, address) pair.
func SignalFor[T any](r *Registry, obj *T, strategy domain.Strategy, opts ...TrackOption) *Signal {
	e, events := track(r, obj, opts)

	r.mu.Lock()
	s, ok := e.signals[strategy]
	if !ok {
		s = newSignal(r, e, strategy)
		e.signals[strategy] = s
		if e.ended && (strategy == domain.StrategyRelease || e.collected) {
			// The object already ended; hand back an immediately
			// terminal signal rather than one that can never fire.
			cause := domain.StrategyRelease
			if e.collected {
				cause = domain.StrategyCollect
			}
			s.fireLocked(r.terminalEvent(e, cause))
		}
	}
	r.mu.Unlock()

	r.publish(events...)
	runtime.KeepAlive(obj)
	return s
}

// Release declares the end of obj's lifetime. The release-strategy signal
// (if any) fires exactly once, property streams on obj complete, and further
// lifecycle subscriptions observe an immediate terminal event.
//
// Releasing an object that was never tracked, or was already released, is a
// benign no-op and returns false.
func Release[T any](r *Registry, obj *T) bool {
	if obj == nil {
		return false
	}
	key := any(weak.Make(obj))

	r.mu.Lock()
	e, ok := r.entries[key]
	if !ok || e.released {
		r.mu.Unlock()
		return false
	}
	e.released = true
	r.endLocked(e)
	if s := e.signals[domain.StrategyRelease]; s != nil {
		s.fireLocked(r.terminalEvent(e, domain.StrategyRelease))
	}
	ev := r.feedEvent(e, domain.EventReleased, domain.StrategyRelease)
	r.mu.Unlock()

	r.logger.Debug("object released", "object_id", ev.ObjectID, "name", ev.Name)
	r.publish(ev)
	runtime.KeepAlive(obj)
	return true
}

// Len reports the number of live side-table entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Objects returns an introspection snapshot of every live entry.
func (r *Registry) Objects() []domain.ObjectInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.ObjectInfo, 0, len(r.entries))
	for _, e := range r.entries {
		info := domain.ObjectInfo{
			ID:        e.id,
			Name:      e.name,
			Released:  e.released,
			TrackedAt: e.trackedAt,
		}
		for strat := range e.signals {
			info.Strategies = append(info.Strategies, strat)
		}
		out = append(out, info)
	}
	return out
}

// track looks up or creates the entry for obj. Exactly one runtime cleanup
// is registered per entry, on creation. Returned events are published by the
// caller after the mutex is released.
func track[T any](r *Registry, obj *T, opts []TrackOption) (*entry, []domain.RegistryEvent) {
	if obj == nil {
		panic("tether: nil object")
	}
	wp := weak.Make(obj)
	key := any(wp)

	r.mu.Lock()
	e, ok := r.entries[key]
	var events []domain.RegistryEvent
	if !ok {
		r.nextID++
		e = &entry{
			id:        r.nextID,
			trackedAt: time.Now().UTC(),
			signals:   make(map[domain.Strategy]*Signal),
			end:       make(chan struct{}),
		}
		for _, opt := range opts {
			opt(e)
		}
		r.entries[key] = e

		// The cleanup closure must not capture obj, or it never runs.
		runtime.AddCleanup(obj, func(k any) { r.collect(k) }, key)

		events = append(events, r.feedEvent(e, domain.EventTracked, ""))
		r.logger.Debug("object tracked", "object_id", e.id, "name", e.name)
	}
	r.mu.Unlock()

	runtime.KeepAlive(obj)
	return e, events
}

// collect is the runtime cleanup hook: the object's storage is gone, so the
// entry leaves the table and every still-silent signal fires with the
// collect cause. Runs on the cleanup goroutine, under the registry mutex.
func (r *Registry) collect(key any) {
	r.mu.Lock()
	e, ok := r.entries[key]
	if !ok {
		// Entry already gone; nothing to terminate.
		r.mu.Unlock()
		return
	}
	delete(r.entries, key)
	e.collected = true
	r.endLocked(e)
	for _, s := range e.signals {
		s.fireLocked(r.terminalEvent(e, domain.StrategyCollect))
	}
	ev := r.feedEvent(e, domain.EventCollected, domain.StrategyCollect)
	r.mu.Unlock()

	r.logger.Debug("object collected", "object_id", ev.ObjectID, "name", ev.Name)
	r.publish(ev)
}

// endLocked closes the entry's end channel once. Caller holds r.mu.
func (r *Registry) endLocked(e *entry) {
	if !e.ended {
		e.ended = true
		close(e.end)
	}
}

func (r *Registry) terminalEvent(e *entry, cause domain.Strategy) domain.LifecycleEvent {
	return domain.LifecycleEvent{
		ObjectID: e.id,
		Name:     e.name,
		Strategy: cause,
		At:       time.Now().UTC(),
	}
}

func (r *Registry) feedEvent(e *entry, typ domain.RegistryEventType, strat domain.Strategy) domain.RegistryEvent {
	return domain.RegistryEvent{
		Type:     typ,
		ObjectID: e.id,
		Name:     e.name,
		Strategy: strat,
		At:       time.Now().UTC(),
	}
}

// publish fans events out to the configured sinks, outside the mutex.
func (r *Registry) publish(events ...domain.RegistryEvent) {
	for _, ev := range events {
		for _, sink := range r.sinks {
			sink.Publish(ev)
		}
	}
}
