package state

import (
	"errors"
	"log"
	"sync"
)

// Change is delivered to subscribers after every applied transition.
type Change struct {
	Transition Transition
	State      State
	Revision   uint64
}

// Store owns the document state and serialises transitions through a Reducer.
type Store struct {
	reducer   Reducer
	state     State
	listeners map[int]func(Change)
	nextID    int
	revision  uint64
	mu        sync.RWMutex
}

// NewStore creates a store holding the initial document.
func NewStore(r Reducer) *Store {
	return &Store{
		reducer:   r,
		state:     Initial(r.DefaultColor),
		listeners: make(map[int]func(Change)),
	}
}

// State returns the current document. Slices are shared with the store and
// must be treated as read-only.
func (st *Store) State() State {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.state
}

// Dispatch applies t. The revision is assigned with the state it labels, so
// a higher revision always carries a later state. Subscribers run after the
// lock is released; their order is unspecified.
func (st *Store) Dispatch(t Transition) (State, error) {
	st.mu.Lock()
	next, err := st.reducer.Reduce(st.state, t)
	if err != nil {
		cur := st.state
		st.mu.Unlock()
		if !errors.Is(err, ErrNoTransition) {
			log.Printf("[store] %s rejected: %v", t.Kind(), err)
		}
		return cur, err
	}
	st.state = next
	st.revision++
	change := Change{Transition: t, State: next, Revision: st.revision}
	listeners := make([]func(Change), 0, len(st.listeners))
	for _, fn := range st.listeners {
		listeners = append(listeners, fn)
	}
	st.mu.Unlock()

	for _, fn := range listeners {
		fn(change)
	}
	return next, nil
}

// Subscribe registers fn for every applied transition and returns a function
// that removes it.
func (st *Store) Subscribe(fn func(Change)) func() {
	st.mu.Lock()
	defer st.mu.Unlock()
	id := st.nextID
	st.nextID++
	st.listeners[id] = fn
	return func() {
		st.mu.Lock()
		defer st.mu.Unlock()
		delete(st.listeners, id)
	}
}
