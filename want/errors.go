package want

import "errors"

// Errors that terminate a want or unwant request. Transport errors are
// passed through unchanged.
var (
	// ErrCSRFTokenTimeout is returned when no CSRF token became available in time.
	ErrCSRFTokenTimeout = errors.New("timed out waiting for CSRF token")

	// ErrMissingGoodDeletePath is returned when unwanting a product whose good delete path is unknown.
	ErrMissingGoodDeletePath = errors.New("missing good delete path")

	// ErrControllerClosed is returned when a request is started after Close.
	ErrControllerClosed = errors.New("want controller is closed")
)
