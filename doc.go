/*
Package tether adds reactive observation of object lifecycles and property
changes to ordinary Go values.

A Registry is an identity-keyed side table: for any tracked object it lazily
creates exactly one lifecycle Signal per end-of-life strategy, shared by all
callers, firing one terminal event when the object's lifetime ends. The
table holds its keys weakly, so tracking an object never keeps it alive.

# End-of-life strategies

Two capabilities are exposed, explicitly and separately:

  - StrategyRelease: the owner declares the object finished with Release.
  - StrategyCollect: the runtime reclaims the object's storage.

# Usage

	reg := tether.New()

	conn := NewConn()
	sig := tether.SignalFor(reg, conn, domain.StrategyRelease)

	events, cancel := sig.Subscribe()
	defer cancel()

	go func() {
		ev := <-events
		log.Println("connection ended:", ev.Strategy)
	}()

	// ... later, when the owner is done with conn:
	tether.Release(reg, conn)

Property observation works against any object implementing
ports.PropertySource (observable.Map is a ready-made implementation):

	m := observable.New()
	m.Set("user.name", "ada")

	stream := tether.Observe(reg, m, "user.name", tether.WithInitial())
	changes, cancel, err := stream.Subscribe(ctx)

Weak streams (the default) complete the moment their object ends, without
error, even if a change was still in flight. WithRetain keeps the object
alive for the stream's duration instead.
*/
package tether
