package store

import "sync"

// Value is a replay-1 observable state slot. Every Set notifies all
// current observers exactly once with the new value; an observer
// subscribing late is immediately replayed the most recent value.
type Value[T any] struct {
	mu      sync.Mutex
	set     bool
	current T
	nextID  int
	subs    map[int]func(T)
}

func NewValue[T any]() *Value[T] {
	return &Value[T]{
		subs: make(map[int]func(T)),
	}
}

// Get returns the most recent value and whether one has been set.
func (v *Value[T]) Get() (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current, v.set
}

func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	v.current = val
	v.set = true
	observers := make([]func(T), 0, len(v.subs))
	for _, fn := range v.subs {
		observers = append(observers, fn)
	}
	v.mu.Unlock()

	// notify outside the lock so an observer can call back into Get
	for _, fn := range observers {
		fn(val)
	}
}

// Subscribe registers an observer and returns its cancel function.
// A canceled subscription never fires again.
func (v *Value[T]) Subscribe(fn func(T)) func() {
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.subs[id] = fn
	replay, hasValue := v.current, v.set
	v.mu.Unlock()

	if hasValue {
		fn(replay)
	}

	return func() {
		v.mu.Lock()
		delete(v.subs, id)
		v.mu.Unlock()
	}
}
