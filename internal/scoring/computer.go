// Package scoring turns a customer's transaction history into a credit score.
package scoring

import "math"

// Score bounds and weights
const (
	MinScore  = 300
	MaxScore  = 850
	BaseScore = 500

	maxValuePoints    = 200.0
	valueDivisor      = 1000.0
	maxActivityPoints = 150.0
	pointsPerTx       = 5.0
)

// Transaction is a single entry of a customer's history as reported by the
// client's middleware. Fields other than the value are ignored.
type Transaction struct {
	TransactionValue float64 `json:"transactionValue"`
}

// Computer computes a score from transactions. Implementations must be pure
// and return a value in [MinScore, MaxScore].
type Computer interface {
	Compute(transactions []Transaction) int
}

// DefaultComputer scores on average transaction size and activity
type DefaultComputer struct{}

// NewDefaultComputer creates the default scoring strategy
func NewDefaultComputer() *DefaultComputer {
	return &DefaultComputer{}
}

// Compute returns MinScore for an empty history; otherwise BaseScore plus up
// to 200 points for average value (1 point per 1000) and up to 150 points
// for activity (5 per transaction), clamped to [MinScore, MaxScore].
func (c *DefaultComputer) Compute(transactions []Transaction) int {
	if len(transactions) == 0 {
		return MinScore
	}

	total := 0.0
	for _, tx := range transactions {
		total += tx.TransactionValue
	}
	avg := total / float64(len(transactions))

	score := float64(BaseScore)
	score += math.Min(maxValuePoints, avg/valueDivisor)
	score += math.Min(maxActivityPoints, float64(len(transactions))*pointsPerTx)

	return Clamp(score)
}

// Clamp truncates score toward zero and bounds it to [MinScore, MaxScore].
// NaN maps to MinScore.
func Clamp(score float64) int {
	if math.IsNaN(score) || score <= MinScore {
		return MinScore
	}
	if score >= MaxScore {
		return MaxScore
	}
	return int(score)
}
