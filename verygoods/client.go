package verygoods

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// Client represents a Very Goods API client
type Client struct {
	baseURL     *url.URL
	siteURL     *url.URL
	httpClient  *http.Client
	auth        *Authentication
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker[*response]
	csrfRefresh time.Duration
	logger      zerolog.Logger
}

// response is a fully read HTTP response
type response struct {
	statusCode int
	header     http.Header
	body       []byte
}

// cookies returns the cookies set by the response
func (r *response) cookies() []*http.Cookie {
	return (&http.Response{Header: r.header}).Cookies()
}

// NewClient creates a new Very Goods client. auth may be nil for anonymous
// access; wanting and unwanting products then does nothing.
func NewClient(auth *Authentication, logger zerolog.Logger, opts ...Option) (*Client, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	baseURL, err := parseRoot(options.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: base URL: %v", ErrInvalidConfig, err)
	}
	siteURL, err := parseRoot(options.siteURL)
	if err != nil {
		return nil, fmt.Errorf("%w: site URL: %v", ErrInvalidConfig, err)
	}

	httpClient := options.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: options.timeout}
	}

	client := &Client{
		baseURL:     baseURL,
		siteURL:     siteURL,
		httpClient:  httpClient,
		auth:        auth,
		csrfRefresh: options.csrfRefresh,
		logger:      logger,
	}

	if options.rateLimit > 0 {
		burst := int(options.rateLimit)
		if burst < 1 {
			burst = 1
		}
		client.limiter = rate.NewLimiter(rate.Limit(options.rateLimit), burst)
	}

	maxFailures := options.maxFailures
	client.breaker = gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:    "verygoods",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: isBreakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})

	return client, nil
}

// parseRoot parses an absolute http(s) URL and ensures its path ends in "/"
// so relative paths resolve beneath it.
func parseRoot(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host in %q", raw)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u, nil
}

// isBreakerSuccess reports whether err should count as a healthy response.
// Client errors and cancellations are the caller's problem, not the server's.
func isBreakerSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return !apiErr.IsServerError()
	}
	return false
}

// Authentication returns the client's authentication, or nil
func (c *Client) Authentication() *Authentication {
	return c.auth
}

// Username returns the authenticated username, or "" when anonymous
func (c *Client) Username() string {
	if c.auth == nil {
		return ""
	}
	return c.auth.Username
}

// apiURL resolves an escaped path relative to the API root
func (c *Client) apiURL(path string, params url.Values) string {
	ref, err := url.Parse(path)
	if err != nil {
		ref = &url.URL{Path: path}
	}
	u := c.baseURL.ResolveReference(ref)
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return u.String()
}

// siteURLFor resolves a path relative to the site root
func (c *Client) siteURLFor(path string) string {
	return c.siteURL.ResolveReference(&url.URL{Path: path}).String()
}

// newRequest builds a request carrying the authentication cookies, if any
func (c *Client) newRequest(ctx context.Context, method, rawURL string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.auth != nil {
		c.auth.apply(req)
	}
	return req, nil
}

// do sends req through the rate limiter and circuit breaker using the
// client's HTTP client.
func (c *Client) do(req *http.Request) (*response, error) {
	return c.doWith(c.httpClient, req)
}

func (c *Client) doWith(httpClient *http.Client, req *http.Request) (*response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Msg("Sending Very Goods request")

	resp, err := c.breaker.Execute(func() (*response, error) {
		httpResp, err := httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer httpResp.Body.Close()

		body, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}

		if httpResp.StatusCode >= 400 {
			return nil, &APIError{
				StatusCode: httpResp.StatusCode,
				Message:    http.StatusText(httpResp.StatusCode),
				Body:       string(body),
			}
		}

		return &response{
			statusCode: httpResp.StatusCode,
			header:     httpResp.Header,
			body:       body,
		}, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		return nil, err
	}

	c.logger.Debug().
		Int("status", resp.statusCode).
		Str("url", req.URL.String()).
		Msg("Received Very Goods response")

	return resp, nil
}

// getJSON performs a GET against the API and returns the body
func (c *Client) getJSON(ctx context.Context, path string, params url.Values) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.apiURL(path, params), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return resp.body, nil
}

// getSite performs a GET against the HTML site and returns the body
func (c *Client) getSite(ctx context.Context, path string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.siteURLFor(path), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return resp.body, nil
}

// decodeEmbedded decodes the array stored at _embedded.<key>
func decodeEmbedded[T any](body []byte, key string) ([]T, error) {
	var envelope struct {
		Embedded map[string]json.RawMessage `json:"_embedded"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if envelope.Embedded == nil {
		return nil, &DecodeError{Key: "_embedded"}
	}

	raw, ok := envelope.Embedded[key]
	if !ok {
		return nil, &DecodeError{Key: key}
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &DecodeError{Key: key, Err: err}
	}
	return items, nil
}
