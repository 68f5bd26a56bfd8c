package services

import (
	"context"
	"sync"

	"github.com/ajharbinger/scoring-api/internal/clients"
	"github.com/ajharbinger/scoring-api/internal/scoring"
)

// MockProvider implements upstream.Provider for testing
type MockProvider struct {
	mu           sync.Mutex
	transactions []scoring.Transaction
	err          error
	calls        int
	// block, when set, holds Fetch until it is closed or ctx ends
	block chan struct{}
	panic bool
}

func (m *MockProvider) Fetch(ctx context.Context, customerNumber string, client clients.ClientConfig) ([]scoring.Transaction, error) {
	m.mu.Lock()
	m.calls++
	block := m.block
	m.mu.Unlock()

	if m.panic {
		panic("provider exploded")
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.transactions, m.err
}

func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func sampleTransactions() []scoring.Transaction {
	return []scoring.Transaction{
		{TransactionValue: 1000},
		{TransactionValue: 3000},
		{TransactionValue: 5000},
	}
}
