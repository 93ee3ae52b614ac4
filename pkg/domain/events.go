package domain

import "time"

// Strategy names an end-of-life capability for a tracked object.
// The two strategies are deliberately distinct: a release signal fires when
// the owner declares the object finished, a collect signal fires when the
// runtime reclaims its storage. They are never conflated.
type Strategy string

const (
	// StrategyRelease fires when the owner explicitly releases the object.
	StrategyRelease Strategy = "release"
	// StrategyCollect fires when the runtime reclaims the object's storage.
	StrategyCollect Strategy = "collect"
)

// LifecycleEvent is the single terminal event a lifecycle signal delivers.
type LifecycleEvent struct {
	ObjectID uint64    `json:"object_id"`
	Name     string    `json:"name,omitempty"`
	Strategy Strategy  `json:"strategy"`
	At       time.Time `json:"at"`
}

// Change is one observed value of a property stream.
type Change struct {
	Path    string `json:"path"`
	Value   any    `json:"value"`
	Initial bool   `json:"initial,omitempty"` // snapshot emitted on subscribe
}

// RegistryEventType categorizes entries on the registry's event feed.
type RegistryEventType string

const (
	EventTracked    RegistryEventType = "tracked"
	EventReleased   RegistryEventType = "released"
	EventCollected  RegistryEventType = "collected"
	EventSubscribed RegistryEventType = "subscribed"
	EventObserved   RegistryEventType = "observed"
)

// RegistryEvent is a feed record published to event sinks. It describes what
// the registry did, never the tracked object's contents.
type RegistryEvent struct {
	Type     RegistryEventType `json:"type"`
	ObjectID uint64            `json:"object_id"`
	Name     string            `json:"name,omitempty"`
	Strategy Strategy          `json:"strategy,omitempty"`
	At       time.Time         `json:"at"`
	Fields   map[string]any    `json:"fields,omitempty"`
}

// ObjectInfo is an introspection snapshot of one tracked entry.
type ObjectInfo struct {
	ID         uint64     `json:"id"`
	Name       string     `json:"name,omitempty"`
	Strategies []Strategy `json:"strategies"`
	Released   bool       `json:"released"`
	TrackedAt  time.Time  `json:"tracked_at"`
}
