package arbitrage

import (
	"context"
	"sync"
)

// MockStorage is an in-memory opportunity journal for tests.
// It lives here to avoid an import cycle with internal/storage.
type MockStorage struct {
	Opportunities []*Opportunity
	Err           error
	mu            sync.Mutex
}

// NewMockStorage creates a new mock storage.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		Opportunities: make([]*Opportunity, 0),
	}
}

// StoreOpportunity stores an opportunity in memory, or returns Err when set.
func (m *MockStorage) StoreOpportunity(_ context.Context, opp *Opportunity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.Opportunities = append(m.Opportunities, opp)
	return nil
}

// Close is a no-op for mock storage.
func (m *MockStorage) Close() error {
	return nil
}

// GetOpportunities returns a copy of all stored opportunities.
func (m *MockStorage) GetOpportunities() []*Opportunity {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*Opportunity, len(m.Opportunities))
	copy(result, m.Opportunities)
	return result
}
