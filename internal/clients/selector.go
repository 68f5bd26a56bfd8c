package clients

import (
	"context"
	"errors"
	"fmt"
)

// Selector picks the client a scoring request fetches history from
type Selector interface {
	Select(ctx context.Context, registry Registry) (*ClientConfig, error)
}

// ByToken selects the client registered under an explicit token
type ByToken string

// Select resolves the token; unknown tokens yield ErrClientNotFound
func (t ByToken) Select(ctx context.Context, registry Registry) (*ClientConfig, error) {
	if t == "" {
		return nil, ErrClientNotFound
	}
	return registry.Resolve(ctx, string(t))
}

// FirstRegistered selects whichever client registered first
type FirstRegistered struct{}

// Select returns the earliest client or ErrNoClients
func (FirstRegistered) Select(ctx context.Context, registry Registry) (*ClientConfig, error) {
	client, err := registry.First(ctx)
	if err != nil {
		if errors.Is(err, ErrNoClients) {
			return nil, err
		}
		return nil, fmt.Errorf("select first client: %w", err)
	}
	return client, nil
}
