package clients

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// ErrDuplicateToken is returned when a generated token already exists
var ErrDuplicateToken = errors.New("client token already registered")

// PostgresRegistry stores clients in the registered_clients table
type PostgresRegistry struct {
	db *sql.DB
}

// NewPostgresRegistry creates a registry over an open connection pool
func NewPostgresRegistry(db *sql.DB) *PostgresRegistry {
	return &PostgresRegistry{db: db}
}

const clientColumns = `id, name, url, username, password, token, created_at`

// Register inserts a new client
func (r *PostgresRegistry) Register(ctx context.Context, req RegisterRequest) (*ClientConfig, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	token, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("generate client token: %w", err)
	}

	query := `
		INSERT INTO registered_clients (name, url, username, password, token)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + clientColumns

	row := r.db.QueryRowContext(ctx, query,
		req.Name, strings.TrimRight(req.URL, "/"), req.Username, req.Password, token.String())

	client, err := scanClient(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrDuplicateToken
		}
		return nil, fmt.Errorf("failed to register client: %w", err)
	}
	return client, nil
}

// Resolve looks a client up by token
func (r *PostgresRegistry) Resolve(ctx context.Context, token string) (*ClientConfig, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, ErrClientNotFound
	}

	query := `SELECT ` + clientColumns + ` FROM registered_clients WHERE token = $1`
	client, err := scanClient(r.db.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to resolve client: %w", err)
	}
	return client, nil
}

// First returns the client with the lowest id
func (r *PostgresRegistry) First(ctx context.Context) (*ClientConfig, error) {
	query := `SELECT ` + clientColumns + ` FROM registered_clients ORDER BY id ASC LIMIT 1`
	client, err := scanClient(r.db.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoClients
		}
		return nil, fmt.Errorf("failed to get first client: %w", err)
	}
	return client, nil
}

// List returns all clients ordered by id
func (r *PostgresRegistry) List(ctx context.Context) ([]ClientConfig, error) {
	query := `SELECT ` + clientColumns + ` FROM registered_clients ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var out []ClientConfig
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		out = append(out, *client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clients: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClient(row rowScanner) (*ClientConfig, error) {
	c := &ClientConfig{}
	if err := row.Scan(&c.ID, &c.Name, &c.URL, &c.Username, &c.Password, &c.Token, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}
