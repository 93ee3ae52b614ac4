// Package observable provides a ready-made property source: a mutex-guarded
// nested map addressed by dot-paths, with exact-path change notifications.
// It is the reference implementation of ports.PropertySource and the host
// object used throughout the examples and tests.
package observable

import (
	"fmt"
	"strings"
	"sync"
	"weak"

	"github.com/aretw0/tether/pkg/domain"
	"github.com/aretw0/tether/pkg/ports"
)

// Map is a nested map[string]any observed by dot-paths ("user.name").
//
// Shape rules: a path is invalid when it is empty, has an empty segment, or
// is obstructed by a non-map value on the way down. A reachable but unset
// leaf is valid and reads as nil. Notifications match the written path
// exactly; replacing a subtree does not notify watchers of paths below it.
type Map struct {
	mu       sync.RWMutex
	data     map[string]any
	watchers map[string]map[int]func(any)
	nextID   int
}

var _ ports.PropertySource = (*Map)(nil)

// New returns an empty Map.
func New() *Map {
	return NewFrom(nil)
}

// NewFrom wraps initial data. The map is used as-is, not copied; the caller
// must not mutate it afterwards except through Set.
func NewFrom(data map[string]any) *Map {
	if data == nil {
		data = make(map[string]any)
	}
	return &Map{
		data:     data,
		watchers: make(map[string]map[int]func(any)),
	}
}

// Set writes value at path, creating intermediate maps as needed, and
// notifies watchers registered for exactly that path.
func (m *Map) Set(path string, value any) error {
	segs, err := split(path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	parent, err := m.descend(segs[:len(segs)-1], true)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	parent[segs[len(segs)-1]] = value

	var fns []func(any)
	for _, fn := range m.watchers[path] {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	// Outside the lock: watchers may read or write the map again.
	for _, fn := range fns {
		fn(value)
	}
	return nil
}

// Get returns the current value at path; nil for a reachable unset leaf.
func (m *Map) Get(path string) (any, error) {
	segs, err := split(path)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	parent, err := m.descendRead(segs[:len(segs)-1])
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, nil
	}
	return parent[segs[len(segs)-1]], nil
}

// Property implements ports.PropertySource.
func (m *Map) Property(path string) (any, error) {
	return m.Get(path)
}

// OnChange implements ports.PropertySource. The path is validated against
// the current shape before registration.
func (m *Map) OnChange(path string, fn func(value any)) (ports.CancelFunc, error) {
	if _, err := m.Get(path); err != nil {
		return nil, err
	}

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	if m.watchers[path] == nil {
		m.watchers[path] = make(map[int]func(any))
	}
	m.watchers[path][id] = fn
	m.mu.Unlock()

	// The cancel handle references the map weakly, per the PropertySource
	// contract: holding it must never keep the source alive. When the map
	// is reclaimed its watcher table goes with it, so there is nothing
	// left to unregister.
	wm := weak.Make(m)
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			mm := wm.Value()
			if mm == nil {
				return
			}
			mm.mu.Lock()
			delete(mm.watchers[path], id)
			if len(mm.watchers[path]) == 0 {
				delete(mm.watchers, path)
			}
			mm.mu.Unlock()
		})
	}
	return cancel, nil
}

// Snapshot returns a shallow copy of the top level, for introspection.
func (m *Map) Snapshot() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]any, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out
}

// descend walks to the parent of the final segment, creating intermediate
// maps when create is set. Caller holds m.mu.
func (m *Map) descend(segs []string, create bool) (map[string]any, error) {
	cur := m.data
	for i, seg := range segs {
		next, ok := cur[seg]
		if !ok {
			if !create {
				return nil, nil
			}
			child := make(map[string]any)
			cur[seg] = child
			cur = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("path segment %q is not a map: %w",
				strings.Join(segs[:i+1], "."), domain.ErrInvalidTarget)
		}
		cur = child
	}
	return cur, nil
}

// descendRead is descend without mutation; a missing intermediate yields a
// nil parent (unset but valid). Caller holds m.mu for reading.
func (m *Map) descendRead(segs []string) (map[string]any, error) {
	cur := m.data
	for i, seg := range segs {
		next, ok := cur[seg]
		if !ok {
			return nil, nil
		}
		child, ok := next.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("path segment %q is not a map: %w",
				strings.Join(segs[:i+1], "."), domain.ErrInvalidTarget)
		}
		cur = child
	}
	return cur, nil
}

func split(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("empty path: %w", domain.ErrInvalidTarget)
	}
	segs := strings.Split(path, ".")
	for _, seg := range segs {
		if seg == "" {
			return nil, fmt.Errorf("malformed path %q: %w", path, domain.ErrInvalidTarget)
		}
	}
	return segs, nil
}
