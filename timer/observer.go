package timer

import "slices"

// observers is an ordered subscriber list. Not safe for concurrent use; the
// owning engine or registry is driven from a single goroutine.
type observers[F any] struct {
	next    int
	entries []observer[F]
}

type observer[F any] struct {
	id int
	fn F
}

// add subscribes fn and returns a function that unsubscribes it.
func (o *observers[F]) add(fn F) (cancel func()) {
	id := o.next
	o.next++
	o.entries = append(o.entries, observer[F]{id: id, fn: fn})
	return func() { o.remove(id) }
}

func (o *observers[F]) remove(id int) {
	o.entries = slices.DeleteFunc(o.entries, func(e observer[F]) bool { return e.id == id })
}

// each calls visit for every subscriber registered when each was entered.
func (o *observers[F]) each(visit func(F)) {
	for _, e := range slices.Clone(o.entries) {
		visit(e.fn)
	}
}
