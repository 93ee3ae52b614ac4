package tether_test

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tether"
	"github.com/aretw0/tether/internal/adapters/memory"
	"github.com/aretw0/tether/pkg/domain"
)

// payload must be at least 16 bytes: pointer-free objects smaller than that
// are batch-allocated by the tiny allocator and may never be individually
// reclaimed, so runtime cleanups for them are not guaranteed to run (see the
// runtime.AddCleanup documentation).
type payload struct {
	n   int
	pad [2]int
}

func TestSignalFor_SameInstance(t *testing.T) {
	reg := tether.New()
	obj := &payload{}

	a := tether.SignalFor(reg, obj, domain.StrategyRelease)
	b := tether.SignalFor(reg, obj, domain.StrategyRelease)

	assert.Same(t, a, b, "getOrCreate must be idempotent per object and strategy")
}

func TestSignalFor_StrategiesAreDistinct(t *testing.T) {
	reg := tether.New()
	obj := &payload{}

	rel := tether.SignalFor(reg, obj, domain.StrategyRelease)
	col := tether.SignalFor(reg, obj, domain.StrategyCollect)

	assert.NotSame(t, rel, col)
	assert.Equal(t, domain.StrategyRelease, rel.Strategy())
	assert.Equal(t, domain.StrategyCollect, col.Strategy())
	assert.Equal(t, 1, reg.Len(), "both strategies share one side-table entry")
}

func TestSignalFor_ConcurrentCreateSingleWinner(t *testing.T) {
	reg := tether.New()
	obj := &payload{}

	const callers = 32
	got := make(chan *tether.Signal, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got <- tether.SignalFor(reg, obj, domain.StrategyRelease)
		}()
	}
	wg.Wait()
	close(got)

	first := <-got
	for s := range got {
		require.Same(t, first, s, "all concurrent callers must observe the winner's instance")
	}
}

func TestRelease_EachSubscriberSeesExactlyOneTerminal(t *testing.T) {
	reg := tether.New()
	obj := &payload{}
	sig := tether.SignalFor(reg, obj, domain.StrategyRelease, tether.Named("obj-a"))

	ch1, cancel1 := sig.Subscribe()
	ch2, cancel2 := sig.Subscribe()
	defer cancel1()
	defer cancel2()

	require.True(t, tether.Release(reg, obj))

	for i, ch := range []<-chan domain.LifecycleEvent{ch1, ch2} {
		ev, ok := <-ch
		require.True(t, ok, "subscriber %d must receive the terminal event", i)
		assert.Equal(t, domain.StrategyRelease, ev.Strategy)
		assert.Equal(t, "obj-a", ev.Name)

		_, ok = <-ch
		assert.False(t, ok, "subscriber %d must see the channel closed after the terminal event", i)
	}
}

func TestRelease_SecondReleaseIsNoOp(t *testing.T) {
	reg := tether.New()
	obj := &payload{}
	tether.SignalFor(reg, obj, domain.StrategyRelease)

	assert.True(t, tether.Release(reg, obj))
	assert.False(t, tether.Release(reg, obj))
}

func TestRelease_UntrackedObjectIsNoOp(t *testing.T) {
	reg := tether.New()
	assert.False(t, tether.Release(reg, &payload{}))
}

func TestSubscribeAfterRelease_ImmediateTerminal(t *testing.T) {
	reg := tether.New()
	obj := &payload{}
	sig := tether.SignalFor(reg, obj, domain.StrategyRelease)
	tether.Release(reg, obj)

	require.True(t, sig.Terminal())

	ch, cancel := sig.Subscribe()
	defer cancel()

	select {
	case ev, ok := <-ch:
		require.True(t, ok)
		assert.Equal(t, domain.StrategyRelease, ev.Strategy)
	default:
		t.Fatal("late subscriber must receive the terminal event immediately")
	}
	_, ok := <-ch
	assert.False(t, ok)
}

func TestSignalFor_AfterRelease_ReturnsTerminalSignal(t *testing.T) {
	reg := tether.New()
	obj := &payload{}

	// Only a collect signal exists when the object is released; the
	// release-strategy signal is created afterwards and must come back
	// already terminal.
	tether.SignalFor(reg, obj, domain.StrategyCollect)
	require.True(t, tether.Release(reg, obj))

	sig := tether.SignalFor(reg, obj, domain.StrategyRelease)
	assert.True(t, sig.Terminal())
}

func TestCancelSubscription_DoesNotAffectOthers(t *testing.T) {
	reg := tether.New()
	obj := &payload{}
	sig := tether.SignalFor(reg, obj, domain.StrategyRelease)

	ch1, cancel1 := sig.Subscribe()
	ch2, cancel2 := sig.Subscribe()
	defer cancel2()

	cancel1()
	tether.Release(reg, obj)

	ev, ok := <-ch2
	require.True(t, ok)
	assert.Equal(t, domain.StrategyRelease, ev.Strategy)

	select {
	case ev := <-ch1:
		t.Fatalf("cancelled subscriber received %+v", ev)
	default:
	}
}

func TestDone_ClosedOnRelease(t *testing.T) {
	reg := tether.New()
	obj := &payload{}
	sig := tether.SignalFor(reg, obj, domain.StrategyRelease)

	select {
	case <-sig.Done():
		t.Fatal("done must stay open while the object lives")
	default:
	}

	tether.Release(reg, obj)

	select {
	case <-sig.Done():
	case <-time.After(time.Second):
		t.Fatal("done must close on release")
	}
}

func TestObjects_Snapshot(t *testing.T) {
	reg := tether.New()
	a := &payload{}
	b := &payload{}
	tether.SignalFor(reg, a, domain.StrategyRelease, tether.Named("a"))
	tether.SignalFor(reg, b, domain.StrategyCollect, tether.Named("b"))

	require.Equal(t, 2, reg.Len())

	names := map[string]bool{}
	for _, info := range reg.Objects() {
		names[info.Name] = true
	}
	assert.True(t, names["a"])
	assert.True(t, names["b"])
}

func TestSink_ReceivesFeedEvents(t *testing.T) {
	sink := memory.New()
	reg := tether.New(tether.WithSink(sink))
	obj := &payload{}

	sig := tether.SignalFor(reg, obj, domain.StrategyRelease, tether.Named("feed"))
	_, cancel := sig.Subscribe()
	defer cancel()
	tether.Release(reg, obj)

	var types []domain.RegistryEventType
	for _, ev := range sink.Events() {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []domain.RegistryEventType{
		domain.EventTracked,
		domain.EventSubscribed,
		domain.EventReleased,
	}, types)
}

func TestCollect_FiresWhenObjectIsReclaimed(t *testing.T) {
	reg := tether.New()

	sig := func() *tether.Signal {
		obj := &payload{n: 42}
		return tether.SignalFor(reg, obj, domain.StrategyCollect)
	}()

	require.Eventually(t, func() bool {
		runtime.GC()
		return sig.Terminal()
	}, 5*time.Second, 10*time.Millisecond, "collect signal must fire after the object is reclaimed")

	require.Eventually(t, func() bool {
		return reg.Len() == 0
	}, 5*time.Second, 10*time.Millisecond, "side-table entry must be removed on collection")
}

func TestCollect_SilentReleaseSignalFiresWithCollectCause(t *testing.T) {
	reg := tether.New()

	sig, ch := func() (*tether.Signal, <-chan domain.LifecycleEvent) {
		obj := &payload{}
		s := tether.SignalFor(reg, obj, domain.StrategyRelease)
		c, _ := s.Subscribe()
		return s, c
	}()

	require.Eventually(t, func() bool {
		runtime.GC()
		return sig.Terminal()
	}, 5*time.Second, 10*time.Millisecond)

	ev, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, domain.StrategyCollect, ev.Strategy, "terminal event reports the actual cause")
}

func TestRegistry_DoesNotKeepObjectsAlive(t *testing.T) {
	reg := tether.New()

	func() {
		obj := &payload{}
		tether.SignalFor(reg, obj, domain.StrategyRelease)
	}()

	require.Eventually(t, func() bool {
		runtime.GC()
		return reg.Len() == 0
	}, 5*time.Second, 10*time.Millisecond, "tracking must not extend the object's lifetime")
}
