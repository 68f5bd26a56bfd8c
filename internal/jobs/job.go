// Package jobs tracks scoring jobs from initiation to their terminal result
// and eventual expiry.
package jobs

import "time"

// State is the lifecycle state of a Job
type State string

const (
	StatePending   State = "pending"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// IsTerminal reports whether no further transition may leave s
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Job is an immutable snapshot of a scoring job. The store never mutates a
// Job after publishing it; transitions publish a replacement.
type Job struct {
	Token          string     `json:"token"`
	CustomerNumber string     `json:"customer_number"`
	ClientToken    string     `json:"client_token"`
	State          State      `json:"state"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Score          *int       `json:"score,omitempty"`
	FailureReason  string     `json:"failure_reason,omitempty"`
}

// Elapsed returns how long the job has existed at now, never negative
func (j Job) Elapsed(now time.Time) time.Duration {
	d := now.Sub(j.CreatedAt)
	if d < 0 {
		return 0
	}
	return d
}

// ExpiredAt reports whether a terminal job is older than ttl at now.
// Pending jobs never expire.
func (j Job) ExpiredAt(now time.Time, ttl time.Duration) bool {
	if !j.State.IsTerminal() || j.CompletedAt == nil {
		return false
	}
	return now.Sub(*j.CompletedAt) > ttl
}

// clone copies the pointer fields so callers cannot reach into the store
func (j Job) clone() Job {
	out := j
	if j.CompletedAt != nil {
		at := *j.CompletedAt
		out.CompletedAt = &at
	}
	if j.Score != nil {
		score := *j.Score
		out.Score = &score
	}
	return out
}

func (j Job) completed(at time.Time, score int) Job {
	next := j
	next.State = StateCompleted
	next.CompletedAt = &at
	next.Score = &score
	next.FailureReason = ""
	return next
}

func (j Job) failed(at time.Time, reason string) Job {
	next := j
	next.State = StateFailed
	next.CompletedAt = &at
	next.Score = nil
	next.FailureReason = reason
	return next
}
