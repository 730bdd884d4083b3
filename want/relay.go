package want

import (
	"context"
	"sync"
)

// relay forwards values pushed from inside the store's critical section to a
// consumer channel. push never blocks; values are queued until the consumer
// reads them, so no transition is dropped.
type relay[T any] struct {
	mu      sync.Mutex
	pending []T
	wake    chan struct{}
	out     chan T
}

func newRelay[T any]() *relay[T] {
	return &relay[T]{
		wake: make(chan struct{}, 1),
		out:  make(chan T),
	}
}

func (r *relay[T]) push(v T) {
	r.mu.Lock()
	r.pending = append(r.pending, v)
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// run delivers queued values until ctx is done, then calls detach and closes
// the output channel.
func (r *relay[T]) run(ctx context.Context, detach func()) {
	defer close(r.out)
	defer detach()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.wake:
		}

		r.mu.Lock()
		batch := r.pending
		r.pending = nil
		r.mu.Unlock()

		for _, v := range batch {
			select {
			case r.out <- v:
			case <-ctx.Done():
				return
			}
		}
	}
}

// broadcaster is a multicast pulse. Subscribers only see pulses sent after
// they subscribed.
type broadcaster struct {
	mu     sync.Mutex
	nextID int
	relays map[int]*relay[struct{}]
}

func newBroadcaster() *broadcaster {
	return &broadcaster{relays: make(map[int]*relay[struct{}])}
}

func (b *broadcaster) subscribe(ctx context.Context) <-chan struct{} {
	r := newRelay[struct{}]()

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.relays[id] = r
	b.mu.Unlock()

	go r.run(ctx, func() {
		b.mu.Lock()
		delete(b.relays, id)
		b.mu.Unlock()
	})

	return r.out
}

func (b *broadcaster) send() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, r := range b.relays {
		r.push(struct{}{})
	}
}
