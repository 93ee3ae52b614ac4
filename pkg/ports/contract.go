package ports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tether/pkg/domain"
)

// RunEventSinkContract verifies that an EventSink implementation adheres to
// the interface contract. drain must return every event published so far, in
// order; sinks with asynchronous delivery should flush before returning.
func RunEventSinkContract(t *testing.T, sink EventSink, drain func(t *testing.T) []domain.RegistryEvent) {
	t.Helper()

	t.Run("Publish and Drain", func(t *testing.T) {
		evs := []domain.RegistryEvent{
			{Type: domain.EventTracked, ObjectID: 1, Name: "a", At: time.Now().UTC()},
			{Type: domain.EventSubscribed, ObjectID: 1, Strategy: domain.StrategyRelease, At: time.Now().UTC()},
			{Type: domain.EventReleased, ObjectID: 1, Strategy: domain.StrategyRelease, At: time.Now().UTC()},
		}
		for _, ev := range evs {
			sink.Publish(ev)
		}

		got := drain(t)
		require.Len(t, got, len(evs))
		for i, ev := range evs {
			assert.Equal(t, ev.Type, got[i].Type, "event %d type", i)
			assert.Equal(t, ev.ObjectID, got[i].ObjectID, "event %d object id", i)
			assert.Equal(t, ev.Strategy, got[i].Strategy, "event %d strategy", i)
		}
	})

	t.Run("Publish Never Panics On Empty Event", func(t *testing.T) {
		assert.NotPanics(t, func() {
			sink.Publish(domain.RegistryEvent{})
		})
	})
}
