package want

import (
	"context"
	"sync"
)

// workerPool runs mutation requests off the caller's goroutine with bounded
// concurrency. The pending queue is unbounded so submit never blocks.
type workerPool struct {
	workers  int
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu      sync.Mutex
	cond    *sync.Cond
	pending []func()
	stopped bool
}

func newWorkerPool(workers int) *workerPool {
	if workers <= 0 {
		workers = 1
	}

	pool := &workerPool{workers: workers}
	pool.cond = sync.NewCond(&pool.mu)

	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}

	return pool
}

func (p *workerPool) worker() {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for len(p.pending) == 0 && !p.stopped {
			p.cond.Wait()
		}
		if len(p.pending) == 0 {
			p.mu.Unlock()
			return
		}
		work := p.pending[0]
		p.pending[0] = nil
		p.pending = p.pending[1:]
		p.mu.Unlock()

		if work != nil {
			work()
		}
	}
}

// submit queues work and returns immediately. It returns ErrControllerClosed
// once the pool is stopped. Queued work still runs after stop; it is expected
// to observe its own cancelled context.
func (p *workerPool) submit(work func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return ErrControllerClosed
	}

	p.pending = append(p.pending, work)
	p.cond.Signal()
	return nil
}

// stop rejects new work and waits for queued work to drain or ctx to end.
func (p *workerPool) stop(ctx context.Context) error {
	var err error

	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		p.cond.Broadcast()
		p.mu.Unlock()

		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			err = ctx.Err()
		}
	})

	return err
}
