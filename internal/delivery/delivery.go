// Package delivery defines the inbound transport abstraction.
package delivery

import "context"

// Delivery is a transport that serves the application until its context or
// lifecycle stops it.
type Delivery interface {
	Serve(ctx context.Context) error
}
