// Package optim finds the scalar parameter k that minimizes a loss.
//
// Every method here is derivative free: it only evaluates the loss, so a
// noisy or non-smooth objective such as the error of a simulated trajectory
// is acceptable. None of them guarantees a global minimum; the result is the
// best point visited before convergence or an iteration cap.
package optim

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNoResult indicates the search finished without a usable point.
	ErrNoResult = errors.New("optim: no usable calibration result")

	// ErrUnknownMethod indicates a calibration method name that is not registered.
	ErrUnknownMethod = errors.New("optim: unknown calibration method")
)

// Method names accepted by New.
const (
	MethodNelderMead = "nelder-mead"
	MethodGrid       = "grid"
)

// Loss maps a parameter value to the quantity being minimized.
type Loss func(k float64) float64

// Calibrator minimizes a scalar loss starting from k0.
type Calibrator interface {
	Calibrate(loss Loss, k0 float64) (Fit, error)
}

// Fit is the outcome of one calibration run.
type Fit struct {
	K           float64 `json:"k"`
	Loss        float64 `json:"loss"`
	Iterations  int     `json:"iterations"`
	Evaluations int     `json:"evaluations"`
	Status      string  `json:"status"`
	Converged   bool    `json:"converged"`
}

// Settings bound a search. Zero fields take the defaults of DefaultSettings.
type Settings struct {
	// Tolerance is the loss improvement (nelder-mead) or bracket width
	// (grid) below which the search stops.
	Tolerance      float64 `yaml:"tolerance"`
	MaxIterations  int     `yaml:"max_iterations"`
	MaxEvaluations int     `yaml:"max_evaluations"`
	// InitialStep sizes the starting simplex or the half-width of the first scan.
	InitialStep float64 `yaml:"initial_step"`
}

func DefaultSettings() Settings {
	return Settings{
		Tolerance:      1e-10,
		MaxIterations:  500,
		MaxEvaluations: 2000,
		InitialStep:    0.05,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.Tolerance <= 0 {
		s.Tolerance = d.Tolerance
	}
	if s.MaxIterations <= 0 {
		s.MaxIterations = d.MaxIterations
	}
	if s.MaxEvaluations <= 0 {
		s.MaxEvaluations = d.MaxEvaluations
	}
	if s.InitialStep <= 0 {
		s.InitialStep = d.InitialStep
	}
	return s
}

// New returns a fresh calibrator for method. Calibrators hold no state
// between runs, but callers get a new one per run anyway.
func New(method string, settings Settings) (Calibrator, error) {
	switch method {
	case MethodNelderMead, "":
		return NewNelderMead(settings), nil
	case MethodGrid:
		return NewGridSearch(settings), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
}

func Methods() []string {
	return []string{MethodNelderMead, MethodGrid}
}

// finite treats NaN as +Inf so comparisons order it last.
func finite(v float64) float64 {
	if math.IsNaN(v) {
		return math.Inf(1)
	}
	return v
}
