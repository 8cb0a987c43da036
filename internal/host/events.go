package host

// Emitter fans a value out to subscribers in subscription order. It is not
// safe for concurrent use; callers serialize access.
type Emitter[T any] struct {
	next int
	subs []subscription[T]
}

type subscription[T any] struct {
	id int
	fn func(T)
}

// Subscribe registers fn and returns a function that removes it.
func (e *Emitter[T]) Subscribe(fn func(T)) (cancel func()) {
	e.next++
	id := e.next
	e.subs = append(e.subs, subscription[T]{id: id, fn: fn})
	return func() {
		for i, s := range e.subs {
			if s.id == id {
				e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
				return
			}
		}
	}
}

// Fire calls every subscriber with v. Subscribers added or removed while
// firing take effect on the next call.
func (e *Emitter[T]) Fire(v T) {
	for _, s := range e.subs {
		s.fn(v)
	}
}

// Len is the number of subscribers.
func (e *Emitter[T]) Len() int { return len(e.subs) }
