package cli

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/aretw0/tether"
	"github.com/aretw0/tether/internal/config"
	"github.com/aretw0/tether/pkg/domain"
	"github.com/aretw0/tether/pkg/observable"
)

// demoObject is one synthetic tracked object: an observable map plus the
// stream watching its counter.
type demoObject struct {
	name   string
	props  *observable.Map
	cancel func()
}

// runDemo keeps a rotating population of observable objects alive so the
// feed has something to show. Each tick mutates a random object; every few
// ticks one object is released, dropped, and replaced, which exercises both
// end-of-life strategies (release immediately, collect once the GC gets to
// the dropped map).
func runDemo(ctx context.Context, registry *tether.Registry, cfg config.Demo, logger *slog.Logger) {
	if cfg.Objects <= 0 || cfg.Interval <= 0 {
		return
	}

	var (
		objects []*demoObject
		serial  int
	)
	spawn := func() {
		serial++
		o := &demoObject{
			name:  fmt.Sprintf("demo-%d", serial),
			props: observable.New(),
		}
		o.props.Set("stats.counter", 0)

		tether.SignalFor(registry, o.props, domain.StrategyRelease, tether.Named(o.name))
		tether.SignalFor(registry, o.props, domain.StrategyCollect)

		stream := tether.Observe(registry, o.props, "stats.counter", tether.WithInitial())
		changes, cancel, err := stream.Subscribe(ctx)
		if err != nil {
			logger.Warn("demo observation failed", "name", o.name, "err", err)
			cancel = func() {}
		} else {
			go func(name string) {
				for range changes {
				}
				logger.Debug("demo stream completed", "name", name)
			}(o.name)
		}
		o.cancel = cancel
		objects = append(objects, o)
	}

	for i := 0; i < cfg.Objects; i++ {
		spawn()
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	tick := 0
	for {
		select {
		case <-ctx.Done():
			for _, o := range objects {
				o.cancel()
				tether.Release(registry, o.props)
			}
			return
		case <-ticker.C:
			tick++
			o := objects[rand.Intn(len(objects))]
			cur, _ := o.props.Get("stats.counter")
			n, _ := cur.(int)
			o.props.Set("stats.counter", n+1)

			// Rotate one object out every eighth tick.
			if tick%8 == 0 {
				idx := rand.Intn(len(objects))
				victim := objects[idx]
				victim.cancel()
				tether.Release(registry, victim.props)
				objects[idx] = objects[len(objects)-1]
				objects = objects[:len(objects)-1]
				spawn()
			}
		}
	}
}
