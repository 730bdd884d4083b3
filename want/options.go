package want

import "time"

const (
	// DefaultTokenTimeout bounds the wait for the first CSRF token.
	DefaultTokenTimeout = 10 * time.Second
	// DefaultWorkers is the number of concurrent mutation requests.
	DefaultWorkers = 4
)

// Option configures a Controller.
type Option func(*controllerOptions)

type controllerOptions struct {
	tokenTimeout time.Duration
	workers      int
}

func defaultOptions() controllerOptions {
	return controllerOptions{
		tokenTimeout: DefaultTokenTimeout,
		workers:      DefaultWorkers,
	}
}

// WithTokenTimeout sets how long a request waits for a CSRF token.
func WithTokenTimeout(timeout time.Duration) Option {
	return func(o *controllerOptions) {
		if timeout > 0 {
			o.tokenTimeout = timeout
		}
	}
}

// WithWorkers sets the number of requests that may run at once.
func WithWorkers(workers int) Option {
	return func(o *controllerOptions) {
		if workers > 0 {
			o.workers = workers
		}
	}
}
