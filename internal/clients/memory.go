package clients

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRegistry is a process-local Registry
type MemoryRegistry struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]ClientConfig
	byToken map[string]int64
	now     func() time.Time
}

// NewMemoryRegistry creates an empty registry
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		byID:    make(map[int64]ClientConfig),
		byToken: make(map[string]int64),
		now:     time.Now,
	}
}

// Register stores a client with the next sequential id and a fresh token
func (r *MemoryRegistry) Register(ctx context.Context, req RegisterRequest) (*ClientConfig, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	token, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("generate client token: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	client := ClientConfig{
		ID:        r.nextID,
		Name:      req.Name,
		URL:       strings.TrimRight(req.URL, "/"),
		Username:  req.Username,
		Password:  req.Password,
		Token:     token.String(),
		CreatedAt: r.now(),
	}
	r.byID[client.ID] = client
	r.byToken[client.Token] = client.ID

	return &client, nil
}

// Resolve looks a client up by its registration token
func (r *MemoryRegistry) Resolve(ctx context.Context, token string) (*ClientConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byToken[token]
	if !ok {
		return nil, ErrClientNotFound
	}
	client := r.byID[id]
	return &client, nil
}

// First returns the earliest registered client
func (r *MemoryRegistry) First(ctx context.Context) (*ClientConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.byID) == 0 {
		return nil, ErrNoClients
	}

	var first *ClientConfig
	for id := range r.byID {
		if first == nil || id < first.ID {
			c := r.byID[id]
			first = &c
		}
	}
	return first, nil
}

// List returns all clients ordered by id
func (r *MemoryRegistry) List(ctx context.Context) ([]ClientConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ClientConfig, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
