// Package dynamo provides the core primitives for simulating a scalar
// ordinary differential equation dy/dt = f(y, k).
//
// The package defines:
//
//   - [Derivative]: the right-hand side f(y, k)
//   - [Reference]: an optional known solution y(t)
//   - [Grid]: the uniform time grid shared by every trajectory of a run
//   - [Stepper]: a one-step advance rule (Euler, Heun, ...)
//   - [Simulator]: drives a Stepper over a Grid
//
// # Example
//
//	grid, _ := dynamo.NewGrid(0.1, 50)
//	s := dynamo.New(func(y, k float64) float64 { return k * y }, integrators.NewHeun())
//	traj := s.Run(1.0, 0.5, grid)
//
// # Thread Safety
//
// Simulator holds no mutable state besides its observers; a Simulator with
// no observers may be shared between goroutines. Independent runs (different
// k, different stepper) are safe to execute concurrently.
package dynamo
