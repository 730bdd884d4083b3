package want

import (
	"maps"
	"sync"
)

// store holds the product->entry map. Every read-modify-write goes through
// modify, which runs under a single mutex and publishes the new snapshot to
// observers before releasing it. Published snapshots are never mutated.
type store struct {
	mu        sync.Mutex
	entries   map[int64]entry
	nextID    int
	observers map[int]func(map[int64]entry)
}

func newStore() *store {
	return &store{
		entries:   make(map[int64]entry),
		observers: make(map[int]func(map[int64]entry)),
	}
}

// modify applies fn to a copy of the current map and publishes the result.
// fn must not block.
func (s *store) modify(fn func(entries map[int64]entry)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := maps.Clone(s.entries)
	fn(next)
	s.entries = next

	for _, observe := range s.observers {
		observe(next)
	}
}

// snapshot returns the current map. Callers must treat it as read-only.
func (s *store) snapshot() map[int64]entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.entries
}

// observe registers fn and calls it with the current snapshot before
// returning. fn runs inside the critical section and must not block.
func (s *store) observe(fn func(map[int64]entry)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	fn(s.entries)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

// len returns the number of stored entries
func (s *store) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}
