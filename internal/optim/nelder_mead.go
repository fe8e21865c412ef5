package optim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// NelderMead runs the gonum downhill simplex on a one-dimensional problem.
// The simplex is a bracket of two trial points that is reflected, expanded,
// contracted or shrunk according to their loss values.
type NelderMead struct {
	settings Settings
}

func NewNelderMead(settings Settings) *NelderMead {
	return &NelderMead{settings: settings.withDefaults()}
}

func (n *NelderMead) Calibrate(loss Loss, k0 float64) (Fit, error) {
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return finite(loss(x[0]))
		},
	}

	settings := &optimize.Settings{
		MajorIterations: n.settings.MaxIterations,
		FuncEvaluations: n.settings.MaxEvaluations,
		Converger: &optimize.FunctionConverge{
			Absolute:   n.settings.Tolerance,
			Iterations: 20,
		},
	}

	method := &optimize.NelderMead{SimplexSize: n.settings.InitialStep}

	res, err := optimize.Minimize(problem, []float64{k0}, settings, method)
	if res == nil || len(res.X) != 1 {
		if err == nil {
			return Fit{}, fmt.Errorf("nelder-mead from k=%g: %w", k0, ErrNoResult)
		}
		return Fit{}, fmt.Errorf("nelder-mead from k=%g: %w: %w", k0, ErrNoResult, err)
	}
	// gonum gives up on an infinite starting value and leaves X unset, so
	// the reported point was never evaluated.
	if res.Status == optimize.Failure || math.IsInf(res.F, 1) {
		return Fit{}, fmt.Errorf("nelder-mead from k=%g: %w: %s", k0, ErrNoResult, res.Status)
	}

	fit := Fit{
		K:           res.X[0],
		Loss:        res.F,
		Iterations:  res.MajorIterations,
		Evaluations: res.FuncEvaluations,
		Status:      res.Status.String(),
		Converged:   converged(res.Status),
	}
	if err != nil {
		fit.Status = fmt.Sprintf("%s: %v", fit.Status, err)
	}

	return fit, nil
}

func converged(s optimize.Status) bool {
	switch s {
	case optimize.Success, optimize.FunctionConvergence, optimize.FunctionThreshold,
		optimize.StepConvergence, optimize.MethodConverge:
		return true
	}
	return false
}
