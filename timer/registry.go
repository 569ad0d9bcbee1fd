package timer

import (
	"log/slog"
	"slices"

	"Countdown/store"
)

// Registry is the shared context for a set of engines: it owns the record
// store, the clock and the global timeout signal, and tracks live engines for
// RemoveAll. Like Engine it is driven from a single goroutine.
type Registry struct {
	store *store.Store
	clock Clock
	log   *slog.Logger

	engines    []*Engine
	timeoutObs observers[func(*Engine)]
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithClock replaces the system clock.
func WithClock(c Clock) RegistryOption {
	return func(r *Registry) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithLogger sets the logger engines derive theirs from.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRegistry creates a Registry. st may be nil when no engine is persistent.
func NewRegistry(st *store.Store, opts ...RegistryOption) *Registry {
	r := &Registry{
		store: st,
		clock: SystemClock{},
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store returns the record store, possibly nil.
func (r *Registry) Store() *store.Store { return r.store }

// Clock returns the clock shared by the registry's engines.
func (r *Registry) Clock() Clock { return r.clock }

// Register adds e unless it is already present.
func (r *Registry) Register(e *Engine) {
	if slices.Contains(r.engines, e) {
		return
	}
	r.engines = append(r.engines, e)
}

// Unregister removes e.
func (r *Registry) Unregister(e *Engine) {
	r.engines = slices.DeleteFunc(r.engines, func(x *Engine) bool { return x == e })
}

// Engines returns the registered engines in registration order.
func (r *Registry) Engines() []*Engine {
	return slices.Clone(r.engines)
}

// OnTimeout subscribes fn to the timeout of any registered engine.
func (r *Registry) OnTimeout(fn func(*Engine)) (cancel func()) {
	return r.timeoutObs.add(fn)
}

// RemoveAll stops every engine, restarts it with a zero countdown and then
// wipes the whole store. It is not possible to remove a single timer.
func (r *Registry) RemoveAll() error {
	for _, e := range slices.Clone(r.engines) {
		e.Stop()
		e.Restart(0)
	}
	r.log.Info("removed all timers", "count", len(r.engines))

	if r.store == nil {
		return nil
	}
	return r.store.ClearAll()
}

// Expired reports whether the stored countdown for id has run out. Unknown
// and unarmed ids are not expired.
func (r *Registry) Expired(id int) bool {
	if r.store == nil {
		return false
	}
	rec, ok := r.store.Get(id)
	if !ok || !rec.Ready {
		return false
	}
	return rec.Expired(r.clock.Now())
}

func (r *Registry) fireTimeout(e *Engine) {
	r.timeoutObs.each(func(fn func(*Engine)) { fn(e) })
}
