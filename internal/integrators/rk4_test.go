package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/odefit/internal/dynamo"
)

func growth(y, k float64) float64 { return k * y }

func zero(y, k float64) float64 { return 0 }

func constant(y, k float64) float64 { return k }

func integrate(s dynamo.Stepper, f dynamo.Derivative, y, k, h float64, steps int) float64 {
	for i := 0; i < steps; i++ {
		y = s.Step(f, y, k, h)
	}
	return y
}

func TestEulerStep(t *testing.T) {
	got := NewEuler().Step(growth, 2.0, 0.5, 0.1)
	want := 2.0 + 0.5*2.0*0.1
	if got != want {
		t.Errorf("Euler step = %g, want %g", got, want)
	}
}

func TestHeunStep(t *testing.T) {
	y, k, h := 2.0, 0.5, 0.1
	s1 := k * y
	s2 := k * (y + s1*h)
	want := y + (s1+s2)/2*h

	if got := NewHeun().Step(growth, y, k, h); got != want {
		t.Errorf("Heun step = %g, want %g", got, want)
	}
}

func TestZeroDerivativeIsConstant(t *testing.T) {
	steppers := map[string]dynamo.Stepper{
		"euler": NewEuler(),
		"heun":  NewHeun(),
		"rk4":   NewRK4(),
	}

	for name, s := range steppers {
		t.Run(name, func(t *testing.T) {
			y := 4.2
			for i := 0; i < 100; i++ {
				y = s.Step(zero, y, 3.0, 0.1)
				if y != 4.2 {
					t.Fatalf("step %d drifted to %g", i, y)
				}
			}
		})
	}
}

func TestHeunMatchesEulerForConstantSlope(t *testing.T) {
	euler := NewEuler()
	heun := NewHeun()

	ye, yh := 1.0, 1.0
	for i := 0; i < 50; i++ {
		ye = euler.Step(constant, ye, 0.37, 0.1)
		yh = heun.Step(constant, yh, 0.37, 0.1)
		if ye != yh {
			t.Fatalf("step %d: euler %g != heun %g", i, ye, yh)
		}
	}
}

func TestOrderOfAccuracy(t *testing.T) {
	exact := math.Exp(0.5)

	tests := []struct {
		name    string
		stepper dynamo.Stepper
		maxErr  float64
	}{
		{"euler", NewEuler(), 1e-2},
		{"heun", NewHeun(), 1e-4},
		{"rk4", NewRK4(), 1e-8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := integrate(tt.stepper, growth, 1.0, 0.5, 0.01, 100)
			if err := math.Abs(got - exact); err > tt.maxErr {
				t.Errorf("error too large: got %.10f, expected %.10f (err %.2e)", got, exact, err)
			}
		})
	}
}

func TestHeunConvergesQuadratically(t *testing.T) {
	exact := math.Exp(1.0)
	coarse := math.Abs(integrate(NewHeun(), growth, 1.0, 1.0, 0.1, 10) - exact)
	fine := math.Abs(integrate(NewHeun(), growth, 1.0, 1.0, 0.05, 20) - exact)

	ratio := coarse / fine
	if ratio < 3.5 || ratio > 4.5 {
		t.Errorf("halving h reduced error by %.2f, expected ~4", ratio)
	}
}
