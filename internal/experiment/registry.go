package experiment

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/odefit/internal/dynamo"
	"github.com/san-kum/odefit/internal/integrators"
)

// Scheme names.
const (
	SchemeEuler = "euler"
	SchemeRK2   = "rk2"
	SchemeRK4   = "rk4"
)

// Problem is a named derivative with an optional known solution.
type Problem struct {
	Name        string
	Description string
	Derivative  dynamo.Derivative
	// Reference is nil when no closed form is known; such problems can only
	// run in fixed mode.
	Reference dynamo.Reference
	// TrueK is the parameter the reference was generated with, when known.
	TrueK    float64
	YInitial float64
	KInitial float64
	Meta     Meta
}

type Registry struct {
	problems    map[string]Problem
	integrators map[string]func() dynamo.Stepper
}

func NewRegistry() *Registry {
	r := &Registry{
		problems:    make(map[string]Problem),
		integrators: make(map[string]func() dynamo.Stepper),
	}

	r.problems["growth"] = Problem{
		Name:        "growth",
		Description: "exponential growth dy/dt = k*y",
		Derivative:  func(y, k float64) float64 { return k * y },
		Reference:   func(t float64) float64 { return math.Exp(0.5 * t) },
		TrueK:       0.5,
		YInitial:    1.0,
		KInitial:    0.1,
		Meta:        Meta{Title: "Exponential growth", XLabel: "t", YLabel: "y"},
	}
	r.problems["decay"] = Problem{
		Name:        "decay",
		Description: "exponential decay dy/dt = -k*y",
		Derivative:  func(y, k float64) float64 { return -k * y },
		Reference:   func(t float64) float64 { return 2.0 * math.Exp(-0.8*t) },
		TrueK:       0.8,
		YInitial:    2.0,
		KInitial:    0.2,
		Meta:        Meta{Title: "Exponential decay", XLabel: "t", YLabel: "y"},
	}
	r.problems["logistic"] = Problem{
		Name:        "logistic",
		Description: "logistic growth dy/dt = k*y*(1-y)",
		Derivative:  func(y, k float64) float64 { return k * y * (1 - y) },
		Reference:   func(t float64) float64 { return 1.0 / (1.0 + 9.0*math.Exp(-1.2*t)) },
		TrueK:       1.2,
		YInitial:    0.1,
		KInitial:    0.5,
		Meta:        Meta{Title: "Logistic growth", XLabel: "t", YLabel: "population fraction"},
	}
	r.problems["cooling"] = Problem{
		Name:        "cooling",
		Description: "Newton cooling dy/dt = k*(20-y)",
		Derivative:  func(y, k float64) float64 { return k * (20 - y) },
		Reference:   func(t float64) float64 { return 20 + 70*math.Exp(-0.3*t) },
		TrueK:       0.3,
		YInitial:    90,
		KInitial:    0.1,
		Meta:        Meta{Title: "Newton cooling", XLabel: "time (min)", YLabel: "temperature (C)"},
	}
	r.problems["cubic"] = Problem{
		Name:        "cubic",
		Description: "pitchfork normal form dy/dt = k*y - y^3 (no reference)",
		Derivative:  func(y, k float64) float64 { return k*y - y*y*y },
		YInitial:    0.5,
		KInitial:    1.0,
		Meta:        Meta{Title: "Pitchfork normal form", XLabel: "t", YLabel: "y"},
	}

	r.integrators[SchemeEuler] = func() dynamo.Stepper { return integrators.NewEuler() }
	r.integrators[SchemeRK2] = func() dynamo.Stepper { return integrators.NewHeun() }
	r.integrators["heun"] = func() dynamo.Stepper { return integrators.NewHeun() }
	r.integrators[SchemeRK4] = func() dynamo.Stepper { return integrators.NewRK4() }

	return r
}

func (r *Registry) GetProblem(name string) (Problem, error) {
	p, ok := r.problems[name]
	if !ok {
		return Problem{}, fmt.Errorf("unknown problem: %s", name)
	}
	return p, nil
}

func (r *Registry) GetScheme(name string) (Scheme, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return Scheme{}, fmt.Errorf("unknown integrator: %s", name)
	}
	return Scheme{Name: name, Stepper: fn()}, nil
}

// GetSchemes resolves names in order.
func (r *Registry) GetSchemes(names []string) ([]Scheme, error) {
	out := make([]Scheme, 0, len(names))
	for _, name := range names {
		s, err := r.GetScheme(name)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *Registry) ListProblems() []string {
	return sortedKeys(r.problems)
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

// DefaultSchemes is the Euler/RK2 pair every run uses unless overridden.
func DefaultSchemes() []Scheme {
	return []Scheme{
		{Name: SchemeEuler, Stepper: integrators.NewEuler()},
		{Name: SchemeRK2, Stepper: integrators.NewHeun()},
	}
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Mode returns the run mode for p. Calibrating a problem without a
// reference yields a mode the orchestrator rejects.
func (p Problem) Mode(calibrate bool) Mode {
	if calibrate {
		return Calibrate(p.Reference)
	}
	return Fixed(p.Reference)
}
