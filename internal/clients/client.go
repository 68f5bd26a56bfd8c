// Package clients keeps the registry of downstream transaction providers
// ("middleware" clients) that scoring jobs fetch history from.
package clients

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrClientNotFound is returned when no client has the given token
	ErrClientNotFound = errors.New("client not found")
	// ErrNoClients is returned when the registry is empty
	ErrNoClients = errors.New("no registered clients")
	// ErrMissingFields is returned when a registration lacks a required field
	ErrMissingFields = errors.New("missing required fields")
)

// ClientConfig holds connection details for a downstream provider.
// The scoring core only reads it.
type ClientConfig struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Username  string    `json:"username"`
	Password  string    `json:"password,omitempty"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

// Redacted returns a copy safe for listing
func (c ClientConfig) Redacted() ClientConfig {
	c.Password = ""
	return c
}

// RegisterRequest is the payload for registering a client
type RegisterRequest struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
}

// Validate checks that every field is present
func (r RegisterRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.URL) == "" {
		missing = append(missing, "url")
	}
	if strings.TrimSpace(r.Name) == "" {
		missing = append(missing, "name")
	}
	if r.Username == "" {
		missing = append(missing, "username")
	}
	if r.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// MissingFieldsError lists the absent registration fields
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// Is makes errors.Is(err, ErrMissingFields) hold
func (e *MissingFieldsError) Is(target error) bool {
	return target == ErrMissingFields
}

// Registry stores registered clients
type Registry interface {
	Register(ctx context.Context, req RegisterRequest) (*ClientConfig, error)
	Resolve(ctx context.Context, token string) (*ClientConfig, error)
	First(ctx context.Context) (*ClientConfig, error)
	List(ctx context.Context) ([]ClientConfig, error)
}
