package verygoods

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid verygoods configuration")
	// ErrNotAuthenticated indicates an operation that needs a signed-in user
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrCircuitOpen indicates requests are being rejected after repeated failures
	ErrCircuitOpen = errors.New("verygoods circuit breaker is open")
	// ErrFirstPageNotLoaded indicates a previous page was requested before any page
	ErrFirstPageNotLoaded = errors.New("first page not loaded")
)

// CSRF scraping errors
var (
	// ErrCSRFHeadNotFound indicates the page has no <head> element
	ErrCSRFHeadNotFound = errors.New("failed to find head tag")
	// ErrCSRFMetaNotFound indicates the csrf-token <meta> element is missing
	ErrCSRFMetaNotFound = errors.New("failed to find csrf-token meta tag")
	// ErrCSRFTokenNotFound indicates the meta element has no content
	ErrCSRFTokenNotFound = errors.New("failed to find CSRF token")
)

// Login errors
var (
	// ErrTokenCookieNotFound indicates the login response did not set remember_token
	ErrTokenCookieNotFound = errors.New("failed to find token cookie")
	// ErrSessionCookieNotFound indicates the login response did not set session
	ErrSessionCookieNotFound = errors.New("failed to find session cookie")
)

// Product relations scraping errors
var (
	// ErrRelationsHeadNotFound indicates the product page has no <head> element
	ErrRelationsHeadNotFound = errors.New("failed to find head tag")
	// ErrRelationsScriptNotFound indicates a data <script> element is missing
	ErrRelationsScriptNotFound = errors.New("failed to find script tag")
	// ErrInvalidRelatedProducts indicates related_products is not a JSON array
	ErrInvalidRelatedProducts = errors.New("invalid related products JSON")
	// ErrInvalidProductJSON indicates the product script has no _embedded object
	ErrInvalidProductJSON = errors.New("invalid product JSON")
)

// APIError represents an HTTP error returned by Very Goods
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("verygoods API error: status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// IsServerError checks if the error is a 5xx response
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}

// DecodeError indicates a required key was missing or had the wrong type
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to decode key %q: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("failed to decode key %q", e.Key)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
