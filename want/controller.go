package want

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Controller manages the wanting and unwanting of products. State changes are
// applied optimistically and reconciled when the server responds.
type Controller struct {
	transport Transport
	tokens    TokenSource
	identity  Identity
	logger    zerolog.Logger
	opts      controllerOptions

	states     *store
	changed    *broadcaster
	pool       *workerPool
	generation atomic.Uint64

	ctx    context.Context
	cancel context.CancelFunc
}

// request carries everything a worker needs, captured when Modify was called
type request struct {
	productID      int64
	want           bool
	username       string
	goodDeletePath string
	generation     uint64
	// tokenDeadline bounds the CSRF token wait from the moment Modify ran,
	// including time spent queued behind other requests.
	tokenDeadline time.Time
}

// NewController creates a new Controller
func NewController(transport Transport, tokens TokenSource, identity Identity, logger zerolog.Logger, opts ...Option) *Controller {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Controller{
		transport: transport,
		tokens:    tokens,
		identity:  identity,
		logger:    logger.With().Str("component", "want").Logger(),
		opts:      options,
		states:    newStore(),
		changed:   newBroadcaster(),
		pool:      newWorkerPool(options.workers),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Initialize seeds the want state of a product from server data without
// making a request. An empty goodDeletePath means the product is not wanted.
// Products with a request in flight are left alone.
func (c *Controller) Initialize(productID int64, goodDeletePath string) {
	c.states.modify(func(entries map[int64]entry) {
		current, ok := entries[productID]
		switch {
		case !ok:
			if goodDeletePath != "" {
				entries[productID] = wantedEntry(goodDeletePath)
			}
		case current.kind == entryWanted:
			if goodDeletePath == "" {
				delete(entries, productID)
			}
		}
	})
}

// Modify requests that the product's want state become want. The call
// returns immediately; the outcome is only visible through State, WantStates
// and Changes. Without an authenticated user Modify does nothing.
func (c *Controller) Modify(productID int64, want bool) {
	username := c.identity.Username()
	if username == "" {
		return
	}

	var (
		ctx     context.Context
		req     request
		started bool
	)

	c.states.modify(func(entries map[int64]entry) {
		current, ok := entries[productID]
		if ok && current.kind == entryModifying {
			if current.target == want {
				return
			}
			current.cancel()
		}

		req = request{
			productID:     productID,
			want:          want,
			username:      username,
			generation:    c.generation.Add(1),
			tokenDeadline: time.Now().Add(c.opts.tokenTimeout),
		}
		if ok && current.kind == entryWanted {
			req.goodDeletePath = current.goodDeletePath
		}

		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(c.ctx)
		entries[productID] = modifyingEntry(cancel, want, req.generation)
		started = true
	})

	if !started {
		return
	}

	if err := c.pool.submit(func() { c.perform(ctx, req) }); err != nil {
		c.complete(req, "", err)
	}
}

// State returns the current want state of a product
func (c *Controller) State(productID int64) State {
	return stateOf(c.states.snapshot(), productID)
}

// WantStates streams the want state of a product, starting with the current
// value. Consecutive duplicates are suppressed. The channel is closed when
// ctx is done.
func (c *Controller) WantStates(ctx context.Context, productID int64) <-chan State {
	r := newRelay[State]()

	var (
		last State
		seen bool
	)
	detach := c.states.observe(func(entries map[int64]entry) {
		state := stateOf(entries, productID)
		if seen && state == last {
			return
		}
		last, seen = state, true
		r.push(state)
	})

	go r.run(ctx, detach)
	return r.out
}

// Changes returns a channel that receives a value each time a want or unwant
// succeeds on the server. Only changes after the call are delivered.
func (c *Controller) Changes(ctx context.Context) <-chan struct{} {
	return c.changed.subscribe(ctx)
}

// Settle waits until the product has no request in flight and returns its state.
func (c *Controller) Settle(ctx context.Context, productID int64) (State, error) {
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for state := range c.WantStates(watchCtx, productID) {
		if !state.IsModifying() {
			return state, nil
		}
	}
	return c.State(productID), ctx.Err()
}

// Close cancels in-flight and queued requests and stops the workers.
// Products that were being modified fall back to NotWanted, and later
// Modify calls do nothing.
func (c *Controller) Close(ctx context.Context) error {
	c.cancel()
	c.states.modify(func(entries map[int64]entry) {
		for id, e := range entries {
			if e.kind == entryModifying {
				e.cancel()
				delete(entries, id)
			}
		}
	})
	return c.pool.stop(ctx)
}

func (c *Controller) perform(ctx context.Context, req request) {
	path, err := c.send(ctx, req)
	if ctx.Err() != nil {
		c.logger.Debug().
			Int64("product_id", req.productID).
			Bool("want", req.want).
			Msg("Want request cancelled")
		return
	}

	c.complete(req, path, err)
}

func (c *Controller) send(ctx context.Context, req request) (string, error) {
	token, err := c.waitToken(ctx, req.tokenDeadline)
	if err != nil {
		return "", err
	}

	if req.want {
		return c.transport.Want(ctx, req.username, req.productID, token)
	}

	if req.goodDeletePath == "" {
		return "", ErrMissingGoodDeletePath
	}
	return "", c.transport.Unwant(ctx, req.goodDeletePath, token)
}

func (c *Controller) waitToken(ctx context.Context, deadline time.Time) (string, error) {
	tokenCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	token, err := c.tokens.WaitToken(tokenCtx)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return "", ErrCSRFTokenTimeout
		}
		return "", err
	}
	return token, nil
}

// complete applies the outcome of req, unless a later request has replaced it.
func (c *Controller) complete(req request, path string, err error) {
	applied := false

	c.states.modify(func(entries map[int64]entry) {
		current, ok := entries[req.productID]
		if !ok || current.kind != entryModifying || current.generation != req.generation {
			return
		}
		current.cancel()
		applied = true

		// A failed unwant also lands on NotWanted; the previous delete path is not restored.
		if err == nil && path != "" {
			entries[req.productID] = wantedEntry(path)
		} else {
			delete(entries, req.productID)
		}
	})

	if !applied {
		c.logger.Debug().
			Int64("product_id", req.productID).
			Uint64("generation", req.generation).
			Msg("Discarding superseded want result")
		return
	}

	if err != nil {
		c.logger.Error().
			Err(err).
			Int64("product_id", req.productID).
			Bool("want", req.want).
			Msg("Error while modifying want state")
		return
	}

	c.logger.Debug().
		Int64("product_id", req.productID).
		Bool("want", req.want).
		Msg("Modified want state")
	c.changed.send()
}
