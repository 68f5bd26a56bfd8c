package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ajharbinger/scoring-api/internal/clients"
	apperrors "github.com/ajharbinger/scoring-api/internal/errors"
	"github.com/ajharbinger/scoring-api/internal/jobs"
	"github.com/ajharbinger/scoring-api/internal/logger"
	"github.com/ajharbinger/scoring-api/internal/metrics"
)

// scoringServiceImpl implements ScoringService
type scoringServiceImpl struct {
	store           *jobs.Store
	registry        clients.Registry
	worker          *Worker
	metrics         *metrics.Collector
	logger          logger.Logger
	averageDuration time.Duration

	// workers run under baseCtx, not the request context: they outlive the
	// request that started them
	baseCtx context.Context
	cancel  context.CancelFunc

	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

// newScoringService creates a new scoring service implementation
func newScoringService(deps Dependencies) *scoringServiceImpl {
	ctx, cancel := context.WithCancel(context.Background())
	return &scoringServiceImpl{
		store:    deps.Store,
		registry: deps.Registry,
		worker: NewWorker(deps.Registry, deps.Provider, deps.Computer,
			deps.FetchTimeout, deps.Metrics, deps.Logger).WithHealthMonitor(deps.UpstreamHealth),
		metrics:         deps.Metrics,
		logger:          deps.Logger,
		averageDuration: deps.AverageDuration,
		baseCtx:         ctx,
		cancel:          cancel,
	}
}

// Initiate validates the request, creates the pending job and hands its
// transition handle to a detached worker
func (s *scoringServiceImpl) Initiate(ctx context.Context, customerNumber string, selector clients.Selector) (string, error) {
	customerNumber = strings.TrimSpace(customerNumber)
	if customerNumber == "" {
		return "", apperrors.ValidationError("customer_number is required", nil).WithOperation("Initiate")
	}
	if selector == nil {
		selector = clients.FirstRegistered{}
	}

	client, err := selector.Select(ctx, s.registry)
	if err != nil {
		switch {
		case errors.Is(err, clients.ErrNoClients):
			return "", apperrors.NoRegisteredClient("No registered clients", err).WithOperation("Initiate")
		case errors.Is(err, clients.ErrClientNotFound):
			return "", apperrors.InvalidClientToken("Unknown client token", err).WithOperation("Initiate")
		default:
			s.logger.Error("Failed to select client", err)
			return "", apperrors.InternalError("failed to select client", err).WithOperation("Initiate")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return "", apperrors.Unavailable("scoring service is shutting down", nil).WithOperation("Initiate")
	}

	handle, err := s.store.Create(customerNumber, client.Token)
	if err != nil {
		s.logger.Error("Failed to create scoring job", err)
		return "", apperrors.InternalError("failed to create scoring job", err).WithOperation("Initiate")
	}
	job, err := s.store.Get(handle.Token())
	if err != nil {
		return "", apperrors.InternalError("created job disappeared", err).WithOperation("Initiate")
	}

	if s.metrics != nil {
		s.metrics.RecordInitiated()
	}
	s.logger.Info("Scoring initiated", "token", job.Token, "customer_number", customerNumber, "client_id", client.ID)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.worker.Run(s.baseCtx, job, handle)
	}()

	return job.Token, nil
}

// QueryStatus returns the job's progress or result
func (s *scoringServiceImpl) QueryStatus(token string) (*StatusView, error) {
	job, err := s.store.Get(token)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return nil, apperrors.UnknownToken("Invalid or expired token", err).WithOperation("QueryStatus")
		}
		return nil, apperrors.InternalError("failed to read job", err).WithOperation("QueryStatus")
	}

	view := &StatusView{
		Token:          job.Token,
		State:          job.State,
		CustomerNumber: job.CustomerNumber,
	}

	switch job.State {
	case jobs.StatePending:
		view.Progress = EstimateProgress(job.Elapsed(s.store.Now()), s.averageDuration)
	case jobs.StateCompleted:
		if job.Score != nil {
			view.Score = *job.Score
		}
	case jobs.StateFailed:
		view.FailureReason = job.FailureReason
	}

	return view, nil
}

// Health reports job counts
func (s *scoringServiceImpl) Health() jobs.Counts {
	return s.store.Counts()
}

// Shutdown stops accepting jobs and waits for running workers
func (s *scoringServiceImpl) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		return ctx.Err()
	}
}
