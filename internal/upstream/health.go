package upstream

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// HealthMonitor tracks transaction fetch outcomes across all clients
type HealthMonitor struct {
	mu                   sync.RWMutex
	totalFetches         int64
	successfulFetches    int64
	failedFetches        int64
	consecutiveFailures  int64
	lastFailureTime      time.Time
	lastSuccessTime      time.Time
	recentFailures       []FailureRecord
	maxRecentFailures    int
	failureThreshold     float64 // failure ratio above which the upstream is unhealthy
	consecutiveThreshold int64
	now                  func() time.Time
}

// FailureRecord is one failed fetch
type FailureRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	ClientID       int64     `json:"client_id"`
	CustomerNumber string    `json:"customer_number"`
	Category       string    `json:"category"`
	Error          string    `json:"error"`
}

// HealthStatus is a snapshot of upstream fetch health
type HealthStatus struct {
	IsHealthy           bool            `json:"is_healthy"`
	TotalFetches        int64           `json:"total_fetches"`
	SuccessfulFetches   int64           `json:"successful_fetches"`
	FailedFetches       int64           `json:"failed_fetches"`
	SuccessRate         float64         `json:"success_rate"`
	ConsecutiveFailures int64           `json:"consecutive_failures"`
	LastFailureTime     *time.Time      `json:"last_failure_time,omitempty"`
	LastSuccessTime     *time.Time      `json:"last_success_time,omitempty"`
	RecentFailures      []FailureRecord `json:"recent_failures"`
	HealthIssues        []string        `json:"health_issues"`
}

// NewHealthMonitor creates a monitor keeping the last 20 failures
func NewHealthMonitor() *HealthMonitor {
	return &HealthMonitor{
		maxRecentFailures:    20,
		failureThreshold:     0.5,
		consecutiveThreshold: 5,
		recentFailures:       make([]FailureRecord, 0, 20),
		now:                  time.Now,
	}
}

// RecordSuccess records a fetch that returned transactions
func (h *HealthMonitor) RecordSuccess(clientID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.totalFetches++
	h.successfulFetches++
	h.consecutiveFailures = 0
	h.lastSuccessTime = h.now()
}

// RecordFailure records a failed fetch
func (h *HealthMonitor) RecordFailure(clientID int64, customerNumber string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	h.totalFetches++
	h.failedFetches++
	h.consecutiveFailures++
	h.lastFailureTime = now

	msg := err.Error()
	h.recentFailures = append(h.recentFailures, FailureRecord{
		Timestamp:      now,
		ClientID:       clientID,
		CustomerNumber: customerNumber,
		Category:       categorizeError(err),
		Error:          msg,
	})
	if len(h.recentFailures) > h.maxRecentFailures {
		h.recentFailures = h.recentFailures[1:]
	}
}

// Status returns the current health snapshot
func (h *HealthMonitor) Status() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := HealthStatus{
		IsHealthy:           true,
		TotalFetches:        h.totalFetches,
		SuccessfulFetches:   h.successfulFetches,
		FailedFetches:       h.failedFetches,
		ConsecutiveFailures: h.consecutiveFailures,
		RecentFailures:      make([]FailureRecord, len(h.recentFailures)),
		HealthIssues:        []string{},
		SuccessRate:         1.0,
	}
	copy(status.RecentFailures, h.recentFailures)

	if h.totalFetches > 0 {
		status.SuccessRate = float64(h.successfulFetches) / float64(h.totalFetches)
	}
	if !h.lastFailureTime.IsZero() {
		t := h.lastFailureTime
		status.LastFailureTime = &t
	}
	if !h.lastSuccessTime.IsZero() {
		t := h.lastSuccessTime
		status.LastSuccessTime = &t
	}

	if h.totalFetches >= 10 && status.SuccessRate < 1.0-h.failureThreshold {
		status.IsHealthy = false
		status.HealthIssues = append(status.HealthIssues, "High upstream failure rate")
	}
	if h.consecutiveFailures >= h.consecutiveThreshold {
		status.IsHealthy = false
		status.HealthIssues = append(status.HealthIssues, "Multiple consecutive upstream failures")
	}
	if issue := h.dominantCategory(); issue != "" {
		status.HealthIssues = append(status.HealthIssues, issue)
	}

	return status
}

// dominantCategory names a failure category covering most recent failures
func (h *HealthMonitor) dominantCategory() string {
	if len(h.recentFailures) < 3 {
		return ""
	}
	counts := make(map[string]int)
	for _, f := range h.recentFailures {
		counts[f.Category]++
	}
	for category, n := range counts {
		if category == "other" || n*2 <= len(h.recentFailures) {
			continue
		}
		switch category {
		case "timeout":
			return "Frequent upstream timeouts"
		case "authentication":
			return "Upstream rejecting client credentials"
		case "rate_limit":
			return "Upstream rate limiting"
		case "network":
			return "Upstream unreachable"
		case "server":
			return "Upstream returning server errors"
		}
	}
	return ""
}

// categorizeError buckets a fetch error
func categorizeError(err error) string {
	if IsTimeout(err) {
		return "timeout"
	}
	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == 401 || se.StatusCode == 403:
			return "authentication"
		case se.StatusCode == 429:
			return "rate_limit"
		case se.StatusCode >= 500:
			return "server"
		}
		return "other"
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection") || strings.Contains(msg, "no such host") || strings.Contains(msg, "dial") {
		return "network"
	}
	return "other"
}
