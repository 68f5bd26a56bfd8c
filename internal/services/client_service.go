package services

import (
	"context"
	"errors"

	"github.com/ajharbinger/scoring-api/internal/clients"
	apperrors "github.com/ajharbinger/scoring-api/internal/errors"
	"github.com/ajharbinger/scoring-api/internal/logger"
)

type clientServiceImpl struct {
	registry clients.Registry
	logger   logger.Logger
}

func newClientService(registry clients.Registry, log logger.Logger) ClientService {
	return &clientServiceImpl{registry: registry, logger: log}
}

// Register validates and stores a downstream client
func (s *clientServiceImpl) Register(ctx context.Context, req clients.RegisterRequest) (*clients.ClientConfig, error) {
	client, err := s.registry.Register(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, clients.ErrMissingFields):
			return nil, apperrors.ValidationError("Missing required fields", err).
				WithOperation("RegisterClient").WithDetails(err.Error())
		case errors.Is(err, clients.ErrDuplicateToken):
			return nil, apperrors.Conflict("client token collision, retry", err).WithOperation("RegisterClient")
		default:
			s.logger.Error("Failed to register client", err)
			return nil, apperrors.DatabaseError("failed to register client", err).WithOperation("RegisterClient")
		}
	}

	s.logger.Info("Client registered", "client_id", client.ID, "name", client.Name)
	return client, nil
}

// List returns registered clients without passwords
func (s *clientServiceImpl) List(ctx context.Context) ([]clients.ClientConfig, error) {
	list, err := s.registry.List(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list clients", err).WithOperation("ListClients")
	}
	out := make([]clients.ClientConfig, len(list))
	for i, c := range list {
		out[i] = c.Redacted()
	}
	return out, nil
}
