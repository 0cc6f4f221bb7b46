package classifier

import (
	"fmt"
	"math"
)

// probabilityTolerance is how far a distribution may drift from summing to 1
// before it is treated as raw logits.
const probabilityTolerance = 1e-3

// Normalize turns model output into a probability distribution. Outputs that
// already sum to 1 with no negatives are returned unchanged; anything else is
// passed through softmax.
func Normalize(scores []float64) []float64 {
	if len(scores) == 0 {
		return scores
	}

	sum := 0.0
	negative := false
	for _, s := range scores {
		if s < 0 {
			negative = true
		}
		sum += s
	}
	if !negative && math.Abs(sum-1) <= probabilityTolerance {
		return scores
	}
	return softmax(scores)
}

func softmax(scores []float64) []float64 {
	maxVal := math.Inf(-1)
	for _, s := range scores {
		maxVal = math.Max(maxVal, s)
	}

	out := make([]float64, len(scores))
	sum := 0.0
	for i, s := range scores {
		out[i] = math.Exp(s - maxVal)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Rescale divides non-negative weights by their sum.
func Rescale(weights []float64) ([]float64, error) {
	sum := 0.0
	for _, w := range weights {
		if w < 0 || math.IsNaN(w) {
			return nil, fmt.Errorf("invalid weight %v", w)
		}
		sum += w
	}
	if sum == 0 {
		return nil, fmt.Errorf("all weights are zero")
	}

	out := make([]float64, len(weights))
	for i, w := range weights {
		out[i] = w / sum
	}
	return out, nil
}

// ArgMax returns the index of the highest score; ties go to the first.
func ArgMax(scores []float64) int {
	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}
	return best
}
