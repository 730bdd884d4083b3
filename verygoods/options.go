package verygoods

import (
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the JSON API root
	DefaultBaseURL = "https://verygoods.co/site-api-0.1/"
	// DefaultSiteURL is the HTML site root, used for login, CSRF and product pages
	DefaultSiteURL = "https://verygoods.co"
	// DefaultCSRFRefresh is how often a new CSRF token is fetched
	DefaultCSRFRefresh = time.Hour
)

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	baseURL     string
	siteURL     string
	timeout     time.Duration
	httpClient  *http.Client
	rateLimit   float64
	csrfRefresh time.Duration
	maxFailures uint32
}

func defaultOptions() clientOptions {
	return clientOptions{
		baseURL:     DefaultBaseURL,
		siteURL:     DefaultSiteURL,
		timeout:     30 * time.Second,
		csrfRefresh: DefaultCSRFRefresh,
		maxFailures: 5,
	}
}

// WithBaseURL sets the JSON API root.
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) {
		o.baseURL = baseURL
	}
}

// WithSiteURL sets the HTML site root.
func WithSiteURL(siteURL string) Option {
	return func(o *clientOptions) {
		o.siteURL = siteURL
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		o.timeout = timeout
	}
}

// WithHTTPClient sets a custom HTTP client. Its timeout takes precedence over WithTimeout.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// WithRateLimit limits requests per second. Zero disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(o *clientOptions) {
		if perSecond >= 0 {
			o.rateLimit = perSecond
		}
	}
}

// WithCSRFRefresh sets how often CSRFSource.Run fetches a new token.
func WithCSRFRefresh(interval time.Duration) Option {
	return func(o *clientOptions) {
		if interval > 0 {
			o.csrfRefresh = interval
		}
	}
}

// WithMaxFailures sets how many consecutive failures open the circuit breaker.
func WithMaxFailures(failures uint32) Option {
	return func(o *clientOptions) {
		if failures > 0 {
			o.maxFailures = failures
		}
	}
}
