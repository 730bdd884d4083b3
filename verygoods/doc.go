// Package verygoods is a client for the Very Goods product marketplace.
//
// The JSON API under DefaultBaseURL serves products, goods and users. A few
// things only exist on the HTML site under DefaultSiteURL: signing in, the
// CSRF token required by mutating requests, and product relations. The
// client scrapes those pages.
//
// Requests are paced by an optional rate limiter and pass through a circuit
// breaker that opens after repeated 5xx or network failures.
//
//	client, err := verygoods.NewClient(nil, logger)
//	auth, err := client.Login(ctx, "user", "secret")
//
//	client, err = verygoods.NewClient(auth, logger)
//	csrf := verygoods.NewCSRFSource(client, logger)
//	go csrf.Run(ctx)
//
//	loader := client.ProductsLoader(verygoods.Filters{}, 20)
//	products, err := loader.Next(ctx)
//
// Client implements want.Transport and want.Identity, and CSRFSource
// implements want.TokenSource.
package verygoods
