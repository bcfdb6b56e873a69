// Package delivery defines the contract every transport entry point
// implements, so main can start HTTP servers and background workers the
// same way.
package delivery

import "context"

// Delivery is a long-running entry point. Serve blocks until the delivery
// stops or the context is cancelled.
type Delivery interface {
	Serve(ctx context.Context) error
}
