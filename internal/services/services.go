package services

import (
	"context"
	"time"

	"github.com/ajharbinger/scoring-api/internal/clients"
	"github.com/ajharbinger/scoring-api/internal/jobs"
	"github.com/ajharbinger/scoring-api/internal/logger"
	"github.com/ajharbinger/scoring-api/internal/metrics"
	"github.com/ajharbinger/scoring-api/internal/scoring"
	"github.com/ajharbinger/scoring-api/internal/upstream"
)

// Services contains all application services
type Services struct {
	Scoring ScoringService
	Clients ClientService
	Sweeper *ExpirySweeper
}

// ScoringService defines the asynchronous scoring operations
type ScoringService interface {
	// Initiate creates a pending job for the customer, starts its worker and
	// returns the job token without waiting for the result
	Initiate(ctx context.Context, customerNumber string, selector clients.Selector) (string, error)
	// QueryStatus renders the current state of the job behind token
	QueryStatus(token string) (*StatusView, error)
	// Health reports job counts by state
	Health() jobs.Counts
	// Shutdown waits for in-flight workers; on ctx expiry it cancels them
	Shutdown(ctx context.Context) error
}

// ClientService defines client registry operations exposed over the API
type ClientService interface {
	Register(ctx context.Context, req clients.RegisterRequest) (*clients.ClientConfig, error)
	List(ctx context.Context) ([]clients.ClientConfig, error)
}

// StatusView is the rendered state of a job
type StatusView struct {
	Token          string     `json:"token"`
	State          jobs.State `json:"state"`
	CustomerNumber string     `json:"customerNumber"`
	Progress       int        `json:"progress,omitempty"`
	Score          int        `json:"score,omitempty"`
	FailureReason  string     `json:"reason,omitempty"`
}

// Dependencies wires the services together
type Dependencies struct {
	Store    *jobs.Store
	Registry clients.Registry
	Provider upstream.Provider
	Computer scoring.Computer
	Metrics  *metrics.Collector
	Logger   logger.Logger

	// UpstreamHealth, when set, receives every fetch outcome
	UpstreamHealth *upstream.HealthMonitor

	// AverageDuration is the expected scoring time used for progress estimates
	AverageDuration time.Duration
	FetchTimeout    time.Duration
	TokenExpiry     time.Duration
	SweepInterval   time.Duration
}

// NewServices creates a new Services instance with all dependencies
func NewServices(deps Dependencies) *Services {
	if deps.Store == nil {
		deps.Store = jobs.NewStore()
	}
	if deps.Registry == nil {
		deps.Registry = clients.NewMemoryRegistry()
	}
	if deps.Provider == nil {
		deps.Provider = upstream.NewHTTPProvider(nil)
	}
	if deps.Computer == nil {
		deps.Computer = scoring.NewDefaultComputer()
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewSimpleLogger()
	}

	return &Services{
		Scoring: newScoringService(deps),
		Clients: newClientService(deps.Registry, deps.Logger),
		Sweeper: NewExpirySweeper(deps.Store, SweeperConfig{
			TTL:      deps.TokenExpiry,
			Interval: deps.SweepInterval,
		}, deps.Metrics, deps.Logger),
	}
}
