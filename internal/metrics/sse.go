package metrics

import (
	"math"

	"github.com/san-kum/odefit/internal/dynamo"
)

// SSE is the sum of squared differences between a and b. Both must come from
// the same grid; a length mismatch is a programming error and panics with a
// *dynamo.LengthError.
func SSE(a, b dynamo.Trajectory) float64 {
	mustMatch(a, b)

	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// RMSE is the root mean squared error between a and b.
func RMSE(a, b dynamo.Trajectory) float64 {
	if len(a) == 0 {
		mustMatch(a, b)
		return 0
	}
	return math.Sqrt(SSE(a, b) / float64(len(a)))
}

// MaxAbs is the largest pointwise absolute difference between a and b.
func MaxAbs(a, b dynamo.Trajectory) float64 {
	mustMatch(a, b)

	worst := 0.0
	for i := range a {
		worst = math.Max(worst, math.Abs(a[i]-b[i]))
	}
	return worst
}

func mustMatch(a, b dynamo.Trajectory) {
	if len(a) != len(b) {
		panic(&dynamo.LengthError{Want: len(a), Got: len(b)})
	}
}
