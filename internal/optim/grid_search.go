package optim

import "math"

// GridSearch scans an evenly spaced set of candidates around the best point
// so far. When the best candidate is interior the next scan zooms into its
// neighbourhood; when it sits on the edge the scan slides over instead.
type GridSearch struct {
	settings Settings
	points   int
}

func NewGridSearch(settings Settings) *GridSearch {
	return &GridSearch{settings: settings.withDefaults(), points: 21}
}

// WithPoints sets the number of candidates per scan (at least 3).
func (g *GridSearch) WithPoints(n int) *GridSearch {
	if n >= 3 {
		g.points = n
	}
	return g
}

func (g *GridSearch) Calibrate(loss Loss, k0 float64) (Fit, error) {
	best := finite(loss(k0))
	bestK := k0
	evals := 1

	// The first scan spans a wide bracket so a poor k0 can still be escaped.
	half := math.Max(g.settings.InitialStep*float64(g.points), math.Abs(k0))
	rounds := 0
	status := "iteration limit"

	for rounds < g.settings.MaxIterations {
		if evals+g.points > g.settings.MaxEvaluations {
			status = "function evaluation limit"
			break
		}
		rounds++

		lo := bestK - half
		spacing := 2 * half / float64(g.points-1)
		center := bestK
		bestIdx := -1

		for i := 0; i < g.points; i++ {
			k := lo + float64(i)*spacing
			if k == center {
				continue
			}
			val := finite(loss(k))
			evals++
			if val < best {
				best = val
				bestK = k
				bestIdx = i
			}
		}

		if bestIdx == 0 || bestIdx == g.points-1 {
			continue
		}
		half = spacing
		if 2*half < g.settings.Tolerance {
			status = "bracket convergence"
			break
		}
	}

	if math.IsInf(best, 1) {
		return Fit{K: bestK, Loss: best, Iterations: rounds, Evaluations: evals, Status: status}, ErrNoResult
	}

	return Fit{
		K:           bestK,
		Loss:        best,
		Iterations:  rounds,
		Evaluations: evals,
		Status:      status,
		Converged:   status == "bracket convergence",
	}, nil
}
