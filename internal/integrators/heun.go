package integrators

import "github.com/san-kum/odefit/internal/dynamo"

// Heun is the second-order Runge-Kutta predictor-corrector. It averages the
// slope at y with the slope at the Euler prediction.
type Heun struct{}

func NewHeun() *Heun {
	return &Heun{}
}

func (r *Heun) Step(f dynamo.Derivative, y, k, h float64) float64 {
	s1 := f(y, k)
	provisional := y + s1*h
	s2 := f(provisional, k)
	return y + ((s1+s2)/2)*h
}
