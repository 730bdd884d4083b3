package verygoods

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/sync/singleflight"
)

// parseCSRFToken extracts the content of <head><meta name="csrf-token">
func parseCSRFToken(body []byte) (string, error) {
	head, ok := parseHead(body)
	if !ok {
		return "", ErrCSRFHeadNotFound
	}

	meta := childElement(head, func(n *html.Node) bool {
		name, _ := attr(n, "name")
		return n.DataAtom == atom.Meta && name == "csrf-token"
	})
	if meta == nil {
		return "", ErrCSRFMetaNotFound
	}

	token, ok := attr(meta, "content")
	if !ok {
		return "", ErrCSRFTokenNotFound
	}
	return token, nil
}

// FetchCSRFToken loads the site root with the client's authentication and
// returns the CSRF token embedded in the page.
func (c *Client) FetchCSRFToken(ctx context.Context) (string, error) {
	if c.auth == nil {
		return "", ErrNotAuthenticated
	}

	body, err := c.getSite(ctx, "")
	if err != nil {
		return "", fmt.Errorf("failed to load CSRF page: %w", err)
	}

	token, err := parseCSRFToken(body)
	if err != nil {
		return "", fmt.Errorf("failed to parse CSRF page: %w", err)
	}
	return token, nil
}

// CSRFFetcher fetches a fresh CSRF token
type CSRFFetcher interface {
	FetchCSRFToken(ctx context.Context) (string, error)
}

// CSRFSource holds the latest CSRF token and keeps it fresh. Readers that
// need a token before the first fetch completes can block in WaitToken.
type CSRFSource struct {
	fetcher  CSRFFetcher
	interval time.Duration
	logger   zerolog.Logger
	group    singleflight.Group

	mu    sync.Mutex
	token string
	ready chan struct{}
}

// NewCSRFSource creates a CSRFSource that refreshes from the client every
// WithCSRFRefresh interval. Anonymous clients yield a source that never
// produces a token.
func NewCSRFSource(client *Client, logger zerolog.Logger) *CSRFSource {
	var fetcher CSRFFetcher
	if client.auth != nil {
		fetcher = client
	}
	return newCSRFSource(fetcher, client.csrfRefresh, logger)
}

func newCSRFSource(fetcher CSRFFetcher, interval time.Duration, logger zerolog.Logger) *CSRFSource {
	if interval <= 0 {
		interval = DefaultCSRFRefresh
	}
	return &CSRFSource{
		fetcher:  fetcher,
		interval: interval,
		logger:   logger.With().Str("component", "csrf").Logger(),
		ready:    make(chan struct{}),
	}
}

// Token returns the latest token, or "" if none has been fetched
func (s *CSRFSource) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Set replaces the latest token. Setting "" makes WaitToken block again.
func (s *CSRFSource) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case token == "" && s.token != "":
		s.ready = make(chan struct{})
	case token != "" && s.token == "":
		close(s.ready)
	}
	s.token = token
}

// WaitToken blocks until a token is available or ctx is done
func (s *CSRFSource) WaitToken(ctx context.Context) (string, error) {
	for {
		s.mu.Lock()
		token, ready := s.token, s.ready
		s.mu.Unlock()

		if token != "" {
			return token, nil
		}

		select {
		case <-ready:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Refresh fetches a new token and stores it. Concurrent calls share a
// single request.
func (s *CSRFSource) Refresh(ctx context.Context) (string, error) {
	if s.fetcher == nil {
		return "", ErrNotAuthenticated
	}

	v, err, _ := s.group.Do("csrf", func() (any, error) {
		return s.fetcher.FetchCSRFToken(ctx)
	})
	if err != nil {
		return "", err
	}

	token := v.(string)
	s.Set(token)
	return token, nil
}

// Run fetches a token immediately and then once per interval until ctx is
// done. Failed fetches are logged and keep the previous token. Run returns
// at once for anonymous clients.
func (s *CSRFSource) Run(ctx context.Context) {
	if s.fetcher == nil {
		s.logger.Debug().Msg("No authentication, CSRF refresh disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error().Err(err).Msg("Failed to refresh CSRF token")
		} else if err == nil {
			s.logger.Debug().Msg("Refreshed CSRF token")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

var _ CSRFFetcher = (*Client)(nil)
