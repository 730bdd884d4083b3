package want

import (
	"context"
)

// Transport performs want and unwant requests against the server
type Transport interface {
	// Want adds the product to the user's goods and returns the path needed
	// to delete the created good, or "" if the server did not provide one.
	Want(ctx context.Context, username string, productID int64, csrfToken string) (string, error)

	// Unwant deletes the good at goodDeletePath.
	Unwant(ctx context.Context, goodDeletePath, csrfToken string) error
}

// TokenSource supplies the latest CSRF token
type TokenSource interface {
	// WaitToken blocks until a token is available or ctx is done.
	WaitToken(ctx context.Context) (string, error)
}

// Identity reports the authenticated user
type Identity interface {
	// Username returns the authenticated username, or "" when signed out.
	Username() string
}
