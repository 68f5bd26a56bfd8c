package services

import "time"

// MaxPendingProgress caps the progress of a job that has not finished, so
// callers can tell "almost done" from "done"
const MaxPendingProgress = 99

// EstimateProgress returns floor(elapsed/average*100) bounded to
// [0, MaxPendingProgress]. It is a display heuristic only.
func EstimateProgress(elapsed, average time.Duration) int {
	if elapsed <= 0 {
		return 0
	}
	if average <= 0 {
		return MaxPendingProgress
	}

	ratio := float64(elapsed) / float64(average) * 100
	if ratio >= MaxPendingProgress {
		return MaxPendingProgress
	}
	return int(ratio)
}
