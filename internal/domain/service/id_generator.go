package service

// IDGenerator mints correlation identifiers (picker token ids, audit record
// ids). Injected rather than calling the global UUID source directly so tests
// can pin ids.
type IDGenerator interface {
	// NewID returns a new unique identifier.
	NewID() string
}
