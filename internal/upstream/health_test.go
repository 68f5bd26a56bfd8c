package upstream

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthMonitor_RecordSuccessAndFailure(t *testing.T) {
	monitor := NewHealthMonitor()
	assert.True(t, monitor.Status().IsHealthy)

	monitor.RecordSuccess(1)
	monitor.RecordSuccess(1)
	monitor.RecordSuccess(2)
	monitor.RecordFailure(1, "123", errors.New("dial tcp: connection refused"))

	status := monitor.Status()
	assert.Equal(t, int64(4), status.TotalFetches)
	assert.Equal(t, int64(1), status.FailedFetches)
	assert.Equal(t, 0.75, status.SuccessRate)
	assert.True(t, status.IsHealthy)
	assert.NotNil(t, status.LastSuccessTime)
	assert.NotNil(t, status.LastFailureTime)
	if assert.Len(t, status.RecentFailures, 1) {
		assert.Equal(t, "network", status.RecentFailures[0].Category)
		assert.Equal(t, "123", status.RecentFailures[0].CustomerNumber)
	}
}

func TestHealthMonitor_ConsecutiveFailures(t *testing.T) {
	monitor := NewHealthMonitor()

	for i := 0; i < 5; i++ {
		monitor.RecordFailure(1, "123", &StatusError{StatusCode: 401, Body: "unauthorized"})
	}

	status := monitor.Status()
	assert.False(t, status.IsHealthy)
	assert.Contains(t, status.HealthIssues, "Multiple consecutive upstream failures")
	assert.Contains(t, status.HealthIssues, "Upstream rejecting client credentials")

	monitor.RecordSuccess(1)
	assert.Equal(t, int64(0), monitor.Status().ConsecutiveFailures)
}

func TestHealthMonitor_RecentFailuresBounded(t *testing.T) {
	monitor := NewHealthMonitor()
	for i := 0; i < 30; i++ {
		monitor.RecordFailure(1, fmt.Sprint(i), errors.New("boom"))
	}

	status := monitor.Status()
	assert.Len(t, status.RecentFailures, 20)
	assert.Equal(t, "29", status.RecentFailures[19].CustomerNumber)
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{context.DeadlineExceeded, "timeout"},
		{&StatusError{StatusCode: 403}, "authentication"},
		{&StatusError{StatusCode: 429}, "rate_limit"},
		{&StatusError{StatusCode: 503}, "server"},
		{&StatusError{StatusCode: 404}, "other"},
		{errors.New("dial tcp 127.0.0.1:1: connect: connection refused"), "network"},
		{errors.New("weird"), "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, categorizeError(tt.err), tt.err.Error())
	}
}
