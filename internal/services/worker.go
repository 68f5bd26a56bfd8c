package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ajharbinger/scoring-api/internal/clients"
	apperrors "github.com/ajharbinger/scoring-api/internal/errors"
	"github.com/ajharbinger/scoring-api/internal/jobs"
	"github.com/ajharbinger/scoring-api/internal/logger"
	"github.com/ajharbinger/scoring-api/internal/metrics"
	"github.com/ajharbinger/scoring-api/internal/scoring"
	"github.com/ajharbinger/scoring-api/internal/upstream"
)

// Failure reasons recorded on jobs
const (
	ReasonInvalidClientToken = "invalid client token"
	ReasonCancelled          = "scoring cancelled"
)

// Worker runs one scoring attempt for a job and writes its terminal state
// through the job's handle.
type Worker struct {
	registry     clients.Registry
	provider     upstream.Provider
	computer     scoring.Computer
	fetchTimeout time.Duration
	metrics      *metrics.Collector
	health       *upstream.HealthMonitor
	logger       logger.Logger
}

// NewWorker creates a worker. A zero fetchTimeout leaves the fetch bounded
// only by the parent context.
func NewWorker(registry clients.Registry, provider upstream.Provider, computer scoring.Computer,
	fetchTimeout time.Duration, m *metrics.Collector, log logger.Logger) *Worker {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Worker{
		registry:     registry,
		provider:     provider,
		computer:     computer,
		fetchTimeout: fetchTimeout,
		metrics:      m,
		logger:       log,
	}
}

// WithHealthMonitor records every fetch outcome in m
func (w *Worker) WithHealthMonitor(m *upstream.HealthMonitor) *Worker {
	w.health = m
	return w
}

// Run scores the job and completes it. Every error, including a panic, ends
// in a Failed job; nothing escapes to the caller.
func (w *Worker) Run(ctx context.Context, job jobs.Job, handle *jobs.Handle) {
	log := w.logger.With("token", job.Token, "customer_number", job.CustomerNumber)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic during scoring: %v", r)
			log.Error("Scoring worker panicked", err)
			if handle.Done() {
				return
			}
			w.finishFailure(log, handle, err.Error(), metrics.ReasonInternal)
		}
	}()

	score, err := w.execute(ctx, job)
	if err != nil {
		reason, class := failureReason(err)
		log.Warn("Scoring failed", "reason", reason, "class", class)
		w.finishFailure(log, handle, reason, class)
		return
	}

	done, err := handle.Succeed(score)
	if err != nil {
		log.Error("Failed to record score", err)
		return
	}
	d := done.CompletedAt.Sub(done.CreatedAt)
	if w.metrics != nil {
		w.metrics.RecordCompleted(d)
	}
	log.Info("Scoring completed", "score", score, "duration", d.String())
}

func (w *Worker) execute(ctx context.Context, job jobs.Job) (int, error) {
	client, err := w.registry.Resolve(ctx, job.ClientToken)
	if err != nil {
		if errors.Is(err, clients.ErrClientNotFound) {
			return 0, apperrors.InvalidClientToken(ReasonInvalidClientToken, err)
		}
		return 0, apperrors.InternalError(err.Error(), err)
	}

	fetchCtx := ctx
	if w.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, w.fetchTimeout)
		defer cancel()
	}

	transactions, err := w.provider.Fetch(fetchCtx, job.CustomerNumber, *client)
	if err != nil {
		if w.health != nil && ctx.Err() == nil {
			w.health.RecordFailure(client.ID, job.CustomerNumber, err)
		}
		switch {
		case ctx.Err() != nil:
			return 0, apperrors.InternalError(ReasonCancelled, err)
		case upstream.IsTimeout(err):
			return 0, apperrors.UpstreamTimeout(
				fmt.Sprintf("upstream fetch timed out after %s", w.fetchTimeout), err)
		default:
			return 0, apperrors.UpstreamFetch(err.Error(), err)
		}
	}

	if w.health != nil {
		w.health.RecordSuccess(client.ID)
	}
	return w.computer.Compute(transactions), nil
}

func (w *Worker) finishFailure(log logger.Logger, handle *jobs.Handle, reason, class string) {
	done, err := handle.Fail(reason)
	if err != nil {
		log.Error("Failed to record scoring failure", err, "reason", reason)
		return
	}
	if w.metrics != nil {
		w.metrics.RecordFailed(class, done.CompletedAt.Sub(done.CreatedAt))
	}
}

// failureReason maps an execution error to the job's failure reason and a
// metric class
func failureReason(err error) (string, string) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return err.Error(), metrics.ReasonInternal
	}

	switch appErr.Code {
	case apperrors.ErrCodeInvalidClientToken:
		return appErr.Message, metrics.ReasonInvalidClient
	case apperrors.ErrCodeUpstreamTimeout:
		return appErr.Message, metrics.ReasonTimeout
	case apperrors.ErrCodeUpstreamFetch:
		return appErr.Message, metrics.ReasonUpstream
	}
	if appErr.Message == ReasonCancelled {
		return appErr.Message, metrics.ReasonCancelled
	}
	return appErr.Message, metrics.ReasonInternal
}
