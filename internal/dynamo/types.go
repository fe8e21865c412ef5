package dynamo

import (
	"fmt"
	"math"
)

// Derivative is the right-hand side of dy/dt = f(y, k).
type Derivative func(y, k float64) float64

// Reference is a known solution sampled at time t. A nil Reference means
// no reference is available.
type Reference func(t float64) float64

// Stepper advances y by one step of size h.
type Stepper interface {
	Step(f Derivative, y, k, h float64) float64
}

// Observer is notified of every sample a Simulator produces.
type Observer interface {
	OnStep(i int, t, y float64)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(i int, t, y float64)

func (f ObserverFunc) OnStep(i int, t, y float64) { f(i, t, y) }

// Trajectory holds one value per grid instant.
type Trajectory []float64

func (tr Trajectory) IsValid() bool {
	for _, v := range tr {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Last returns the final sample, or NaN for an empty trajectory.
func (tr Trajectory) Last() float64 {
	if len(tr) == 0 {
		return math.NaN()
	}
	return tr[len(tr)-1]
}

// Grid is a uniform time grid t_i = i*Step for i = 0..Count.
type Grid struct {
	Step  float64 `json:"step"`
	Count int     `json:"count"`
}

// NewGrid validates step and count and returns the grid.
func NewGrid(step float64, count int) (Grid, error) {
	if !(step > 0) || math.IsInf(step, 0) {
		return Grid{}, fmt.Errorf("%w: step size must be positive, got %g", ErrInvalidGrid, step)
	}
	if count < 1 {
		return Grid{}, fmt.Errorf("%w: step count must be at least 1, got %d", ErrInvalidGrid, count)
	}
	return Grid{Step: step, Count: count}, nil
}

// Len is the number of instants, Count+1.
func (g Grid) Len() int { return g.Count + 1 }

func (g Grid) Duration() float64 { return g.Step * float64(g.Count) }

// At returns t_i.
func (g Grid) At(i int) float64 { return float64(i) * g.Step }

// Times returns every instant of the grid.
func (g Grid) Times() []float64 {
	ts := make([]float64, g.Len())
	for i := range ts {
		ts[i] = g.At(i)
	}
	return ts
}

// Sample evaluates ref on every instant of the grid.
func (g Grid) Sample(ref Reference) Trajectory {
	tr := make(Trajectory, g.Len())
	for i := range tr {
		tr[i] = ref(g.At(i))
	}
	return tr
}

// Refine returns a grid covering the same duration with a step no larger
// than maxStep. The step is exactly maxStep only when the duration is a
// multiple of it.
func (g Grid) Refine(maxStep float64) Grid {
	if g.Step <= maxStep {
		return g
	}
	d := g.Duration()
	n := max(int(math.Round(d/maxStep)), 1)
	// Rounding down can leave a step above maxStep when d is not a
	// multiple of it.
	if d/float64(n) > maxStep*(1+1e-9) {
		n++
	}
	return Grid{Step: d / float64(n), Count: n}
}
