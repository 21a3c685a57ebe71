package mocks

import (
	"context"

	"github.com/mcdonaldj/extpublish/internal/ports"
)

// MockPublisher implements ports.Publisher for testing.
type MockPublisher struct {
	// Calls records bundle paths passed to Publish
	Calls []string
	// Result is returned by Publish
	Result ports.Result
	// Err is returned by Publish
	Err error
}

// NewMockPublisher creates a publisher that always succeeds.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{Result: ports.Result{Succeeded: true}}
}

// Publish records the call and returns Result and Err.
func (m *MockPublisher) Publish(ctx context.Context, bundlePath string) (ports.Result, error) {
	m.Calls = append(m.Calls, bundlePath)
	return m.Result, m.Err
}

// Compile-time check that MockPublisher implements ports.Publisher.
var _ ports.Publisher = (*MockPublisher)(nil)
