package ports

import "context"

// Diagnostic is one code/detail pair reported by the store.
type Diagnostic struct {
	Code   string
	Detail string
}

// Result is the outcome of a publish cycle.
type Result struct {
	Succeeded   bool
	Diagnostics []Diagnostic
}

// Publisher sends a bundle to an extension store.
// Each store backend is one implementation.
type Publisher interface {
	// Publish uploads and, depending on configuration, publishes the bundle
	// at path. A failed Result is not an error unless the publisher was
	// configured to raise on failure.
	Publish(ctx context.Context, bundlePath string) (Result, error)
}
