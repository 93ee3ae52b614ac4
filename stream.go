package tether

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"
	"weak"

	"github.com/aretw0/tether/pkg/domain"
	"github.com/aretw0/tether/pkg/ports"
)

// streamBuffer is the capacity of both the host-facing and subscriber-facing
// channels. A slow subscriber drops change notifications rather than
// blocking the host's mutation path.
const streamBuffer = 16

// ObserveOption configures a Stream.
type ObserveOption func(*Stream)

// WithInitial makes every subscription emit the property's current value
// before any change notifications.
func WithInitial() ObserveOption {
	return func(s *Stream) {
		s.initial = true
	}
}

// WithRetain makes the stream hold a strong reference to the object for the
// stream's whole lifetime. The default is a weak stream, which never keeps
// its target alive and completes the moment the target ends.
func WithRetain() ObserveOption {
	return func(s *Stream) {
		s.retain = true
	}
}

// Stream is a cold sequence of observed values at one dot-path of a tracked
// object. Nothing is registered with the object until Subscribe; every
// subscription registers anew and is torn down independently, so a stream
// can be subscribed any number of times.
type Stream struct {
	registry *Registry
	entry    *entry
	path     string

	initial bool
	retain  bool

	isSource bool
	resolve  func() ports.PropertySource
	strong   any
}

// Observe builds a property stream for obj at path. The object is tracked
// in the registry as a side effect, so its lifetime end is what completes
// the stream's subscriptions.
//
// obj must implement ports.PropertySource; that and path validity are
// checked at subscription time, per-subscription.
func Observe[T any](r *Registry, obj *T, path string, opts ...ObserveOption) *Stream {
	e, events := track(r, obj, nil)

	wp := weak.Make(obj)
	s := &Stream{
		registry: r,
		entry:    e,
		path:     path,
	}
	_, s.isSource = any(obj).(ports.PropertySource)
	s.resolve = func() ports.PropertySource {
		p := wp.Value()
		if p == nil {
			return nil
		}
		src, ok := any(p).(ports.PropertySource)
		if !ok {
			return nil
		}
		return src
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.retain {
		s.strong = obj
	}

	r.publish(events...)
	runtime.KeepAlive(obj)
	return s
}

// Subscribe registers with the object's property system and returns a
// channel of observed values. The channel is closed — completion, never an
// error — when the subscription is cancelled, ctx is done, or the object's
// lifetime ends. Termination takes precedence over any change still in
// flight.
//
// An object that is not a property source, or a path invalid for its shape,
// fails here with domain.ErrInvalidTarget; nothing is delivered.
func (s *Stream) Subscribe(ctx context.Context) (<-chan domain.Change, ports.CancelFunc, error) {
	if !s.isSource {
		return nil, nil, fmt.Errorf("observe %q: %w", s.path, domain.ErrInvalidTarget)
	}

	out := make(chan domain.Change, streamBuffer)

	src := s.resolve()
	if src == nil || s.ended() {
		// The object is already gone; a weak stream completes instead
		// of erroring.
		close(out)
		return out, func() {}, nil
	}

	cur, err := src.Property(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("observe %q: %w", s.path, err)
	}

	// The callback captures only the path and the channel, never the
	// source or the stream, so a registration sitting in the source's
	// watcher table cannot create a reference cycle.
	path := s.path
	in := make(chan domain.Change, streamBuffer)
	cancelSrc, err := src.OnChange(path, func(v any) {
		select {
		case in <- domain.Change{Path: path, Value: v}:
		default:
			// Subscriber is not keeping up; drop rather than block
			// the host's mutation path.
		}
	})
	if err != nil {
		return nil, nil, fmt.Errorf("observe %q: %w", s.path, err)
	}

	s.registry.publish(domain.RegistryEvent{
		Type:     domain.EventObserved,
		ObjectID: s.entry.id,
		Name:     s.entry.name,
		At:       time.Now().UTC(),
		Fields:   map[string]any{"path": s.path},
	})

	stop := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(stop)
		})
	}

	go s.pump(ctx, cur, in, out, stop, cancelSrc)
	return out, cancel, nil
}

// pump forwards change notifications until the object ends, the context is
// done, or the subscription is cancelled. The end channel always wins a
// race against a pending value.
func (s *Stream) pump(ctx context.Context, cur any, in <-chan domain.Change, out chan<- domain.Change, stop <-chan struct{}, cancelSrc ports.CancelFunc) {
	end := s.entry.end
	defer close(out)
	defer cancelSrc()

	if s.initial {
		if s.interrupted(ctx, end, stop) {
			return
		}
		select {
		case out <- domain.Change{Path: s.path, Value: cur, Initial: true}:
		case <-end:
			return
		case <-ctx.Done():
			return
		case <-stop:
			return
		}
	}

	for {
		select {
		case <-end:
			return
		case <-ctx.Done():
			return
		case <-stop:
			return
		case c := <-in:
			if s.interrupted(ctx, end, stop) {
				return
			}
			select {
			case out <- c:
			case <-end:
				return
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}
}

func (s *Stream) interrupted(ctx context.Context, end, stop <-chan struct{}) bool {
	select {
	case <-end:
		return true
	case <-ctx.Done():
		return true
	case <-stop:
		return true
	default:
		return false
	}
}

func (s *Stream) ended() bool {
	select {
	case <-s.entry.end:
		return true
	default:
		return false
	}
}
