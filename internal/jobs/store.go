package jobs

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned for tokens never issued or already swept
	ErrNotFound = errors.New("job not found")
	// ErrNotPending is returned when a transition targets a terminal job
	ErrNotPending = errors.New("job is not pending")
	// ErrHandleUsed is returned when a Handle is asked to transition twice
	ErrHandleUsed = errors.New("job handle already used")
)

// TokenGenerator issues opaque job tokens
type TokenGenerator func() (string, error)

// UUIDTokens generates random (v4) UUID tokens
func UUIDTokens() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Counts summarises the store contents
type Counts struct {
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// Terminal returns the number of jobs in a terminal state
func (c Counts) Terminal() int {
	return c.Completed + c.Failed
}

// Store is a concurrent-safe map of token to Job.
//
// Readers receive copies of immutable snapshots; writers swap the whole record
// under the lock, so a reader sees either the pre- or post-transition Job.
type Store struct {
	mu       sync.RWMutex
	jobs     map[string]*Job
	clock    Clock
	newToken TokenGenerator
}

// Option configures a Store
type Option func(*Store)

// WithClock sets the clock used for createdAt/completedAt
func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithTokenGenerator overrides token issuance
func WithTokenGenerator(g TokenGenerator) Option {
	return func(s *Store) { s.newToken = g }
}

// NewStore creates an empty store
func NewStore(opts ...Option) *Store {
	s := &Store{
		jobs:     make(map[string]*Job),
		clock:    RealClock{},
		newToken: UUIDTokens,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const maxTokenAttempts = 8

// Create inserts a pending job and returns the handle that owns its terminal
// transition. The handle's Token is what callers poll with.
func (s *Store) Create(customerNumber, clientToken string) (*Handle, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		token, err := s.newToken()
		if err != nil {
			return nil, fmt.Errorf("generate job token: %w", err)
		}
		if _, exists := s.jobs[token]; exists {
			continue
		}

		s.jobs[token] = &Job{
			Token:          token,
			CustomerNumber: customerNumber,
			ClientToken:    clientToken,
			State:          StatePending,
			CreatedAt:      now,
		}
		return &Handle{store: s, token: token}, nil
	}

	return nil, fmt.Errorf("generate job token: %d collisions in a row", maxTokenAttempts)
}

// Get returns a snapshot of the job for token
func (s *Store) Get(token string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[token]
	if !ok {
		return Job{}, ErrNotFound
	}
	return job.clone(), nil
}

// CompleteSuccess moves a pending job to Completed with score
func (s *Store) CompleteSuccess(token string, score int) (Job, error) {
	return s.transition(token, func(j Job, at time.Time) Job {
		return j.completed(at, score)
	})
}

// CompleteFailure moves a pending job to Failed with reason
func (s *Store) CompleteFailure(token, reason string) (Job, error) {
	return s.transition(token, func(j Job, at time.Time) Job {
		return j.failed(at, reason)
	})
}

func (s *Store) transition(token string, next func(Job, time.Time) Job) (Job, error) {
	at := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.jobs[token]
	if !ok {
		return Job{}, ErrNotFound
	}
	if current.State != StatePending {
		return current.clone(), ErrNotPending
	}

	updated := next(*current, at)
	s.jobs[token] = &updated
	return updated.clone(), nil
}

// SweepExpired removes every terminal job whose completedAt is more than ttl
// before now and returns how many were removed.
func (s *Store) SweepExpired(ttl time.Duration, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, job := range s.jobs {
		if job.ExpiredAt(now, ttl) {
			delete(s.jobs, token)
			removed++
		}
	}
	return removed
}

// Counts returns the number of jobs per state
func (s *Store) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c Counts
	for _, job := range s.jobs {
		switch job.State {
		case StatePending:
			c.Pending++
		case StateCompleted:
			c.Completed++
		case StateFailed:
			c.Failed++
		}
	}
	return c
}

// Now exposes the store clock so progress is computed on the same timeline
func (s *Store) Now() time.Time {
	return s.clock.Now()
}

// Handle is the transition capability for a single job. Only the holder of
// the handle returned by Create should complete the job, and a handle
// completes at most once.
type Handle struct {
	store *Store
	token string
	used  atomic.Bool
}

// Token returns the job token
func (h *Handle) Token() string {
	return h.token
}

// Succeed records the computed score
func (h *Handle) Succeed(score int) (Job, error) {
	if !h.used.CompareAndSwap(false, true) {
		return Job{}, ErrHandleUsed
	}
	return h.store.CompleteSuccess(h.token, score)
}

// Fail records the failure reason
func (h *Handle) Fail(reason string) (Job, error) {
	if !h.used.CompareAndSwap(false, true) {
		return Job{}, ErrHandleUsed
	}
	return h.store.CompleteFailure(h.token, reason)
}

// Done reports whether the handle has been used
func (h *Handle) Done() bool {
	return h.used.Load()
}
