package ports

// CancelFunc undoes a registration. It is idempotent.
type CancelFunc func()

// PropertySource is the host collaborator for property observation. An
// object that wants its properties observed implements this port (or embeds
// an implementation such as observable.Map).
//
// Paths are dot-separated ("user.name"). Both methods return
// domain.ErrInvalidTarget when the path does not fit the object's shape;
// an unset but reachable leaf is valid and reads as nil.
type PropertySource interface {
	// Property returns the current value at path.
	Property(path string) (any, error)

	// OnChange registers fn to be called with each new value at exactly
	// path. The returned CancelFunc unregisters it.
	//
	// The CancelFunc must not keep the source reachable: registrations
	// die with the source, so weak observers holding only the handle
	// never extend the source's lifetime. Calling it after the source is
	// gone is a no-op.
	OnChange(path string, fn func(value any)) (CancelFunc, error)
}
