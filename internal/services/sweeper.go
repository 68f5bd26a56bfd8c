package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/ajharbinger/scoring-api/internal/jobs"
	"github.com/ajharbinger/scoring-api/internal/logger"
	"github.com/ajharbinger/scoring-api/internal/metrics"
)

// SweeperConfig controls expiry of finished jobs
type SweeperConfig struct {
	TTL      time.Duration `json:"ttl"`      // How long a finished job stays queryable
	Interval time.Duration `json:"interval"` // How often to sweep
}

// DefaultSweeperConfig returns the service defaults
func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		TTL:      5 * time.Minute,
		Interval: time.Minute,
	}
}

// SweepStats describes one sweep cycle
type SweepStats struct {
	StartTime time.Time     `json:"start_time"`
	Removed   int           `json:"removed"`
	Pending   int           `json:"pending"`
	Duration  time.Duration `json:"duration"`
}

// Summary returns a human-readable summary of the sweep
func (s *SweepStats) Summary() string {
	return fmt.Sprintf("removed=%d, pending=%d, duration=%v", s.Removed, s.Pending, s.Duration)
}

// ExpirySweeper periodically removes finished jobs older than the TTL.
// Pending jobs are never removed.
type ExpirySweeper struct {
	store     *jobs.Store
	config    SweeperConfig
	metrics   *metrics.Collector
	logger    logger.Logger
	isRunning bool
	stopChan  chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
}

// NewExpirySweeper creates a sweeper; zero config values take the defaults
func NewExpirySweeper(store *jobs.Store, config SweeperConfig, m *metrics.Collector, log logger.Logger) *ExpirySweeper {
	defaults := DefaultSweeperConfig()
	if config.TTL <= 0 {
		config.TTL = defaults.TTL
	}
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &ExpirySweeper{
		store:   store,
		config:  config,
		metrics: m,
		logger:  log,
	}
}

// Start begins the sweep loop
func (s *ExpirySweeper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("sweeper is already running")
	}

	s.isRunning = true
	s.stopChan = make(chan struct{})

	s.wg.Add(1)
	go s.run(s.stopChan)

	s.logger.Info("Expiry sweeper started", "ttl", s.config.TTL.String(), "interval", s.config.Interval.String())
	return nil
}

// Stop halts the sweep loop and waits for it to exit
func (s *ExpirySweeper) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return fmt.Errorf("sweeper is not running")
	}

	close(s.stopChan)
	s.wg.Wait()
	s.isRunning = false

	s.logger.Info("Expiry sweeper stopped")
	return nil
}

// IsRunning returns whether the sweep loop is active
func (s *ExpirySweeper) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// RunOnce executes a single sweep at the store's current time
func (s *ExpirySweeper) RunOnce() *SweepStats {
	start := time.Now()
	stats := &SweepStats{StartTime: start}

	stats.Removed = s.store.SweepExpired(s.config.TTL, s.store.Now())
	stats.Pending = s.store.Counts().Pending
	stats.Duration = time.Since(start)

	if s.metrics != nil {
		s.metrics.RecordExpired(stats.Removed)
		s.metrics.SetPending(stats.Pending)
	}
	return stats
}

func (s *ExpirySweeper) run(stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			stats := s.RunOnce()
			if stats.Removed > 0 {
				s.logger.Info("Expired jobs swept", "removed", stats.Removed, "pending", stats.Pending)
			} else {
				s.logger.Debug("Sweep cycle completed", "summary", stats.Summary())
			}
		}
	}
}
