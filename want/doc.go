// Package want tracks whether the signed-in user wants each product and
// drives the requests that change it.
//
// A Controller keeps one entry per product: either the product is wanted (and
// the server gave us the path needed to delete the good), or a request is in
// flight toward a target state. A missing entry means the product is not
// wanted. All reads and writes go through a single mutex-guarded store, and
// network work never runs while the lock is held.
//
// # Usage
//
//	controller := want.NewController(client, csrf, client, logger)
//	defer controller.Close(context.Background())
//
//	// Seed from decoded products
//	for _, p := range products {
//		controller.Initialize(p.ID, p.GoodDeletePath)
//	}
//
//	// Observe one product
//	for state := range controller.WantStates(ctx, productID) {
//		fmt.Println(state)
//	}
//
//	// Toggle; returns immediately
//	controller.Modify(productID, true)
//
// # Transitions
//
// Modify moves a product to ModifyingToWanted or ModifyingToNotWanted right
// away. Repeating the same target while a request is in flight does nothing;
// a different target cancels the in-flight request before starting a new one,
// so only the latest request may update the product. On success the product
// becomes Wanted (when the server returned a delete path) or NotWanted. On
// any failure the entry is removed and the product reads as NotWanted, even
// if it was Wanted before a failed unwant.
//
// Errors are never returned from Modify. They are logged with the product ID
// and target, and show up only as the state change described above.
package want
