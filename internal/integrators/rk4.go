package integrators

import "github.com/san-kum/odefit/internal/dynamo"

type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(f dynamo.Derivative, y, k, h float64) float64 {
	k1 := f(y, k)
	k2 := f(y+h*0.5*k1, k)
	k3 := f(y+h*0.5*k2, k)
	k4 := f(y+h*k3, k)
	return y + h/6.0*(k1+2*k2+2*k3+k4)
}
