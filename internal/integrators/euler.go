package integrators

import "github.com/san-kum/odefit/internal/dynamo"

// Euler is the explicit first-order scheme y' = y + h*f(y, k).
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(f dynamo.Derivative, y, k, h float64) float64 {
	return y + f(y, k)*h
}
