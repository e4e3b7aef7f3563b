package testing

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockElector is a mock of the leader election capability.
// It can be used across all tests that run code under leadership.
type MockElector struct {
	mock.Mock
}

// Acquire attempts to take the lease.
func (m *MockElector) Acquire(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

// Renew extends the lease.
func (m *MockElector) Renew(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Release gives the lease up.
func (m *MockElector) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Identity returns the mock holder identity.
func (m *MockElector) Identity() string {
	return "mock-elector"
}
