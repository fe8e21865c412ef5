package dynamo

type Simulator struct {
	f         Derivative
	stepper   Stepper
	observers []Observer
}

func New(f Derivative, stepper Stepper) *Simulator {
	return &Simulator{
		f:         f,
		stepper:   stepper,
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run integrates from y0 over g with parameter k. The result has g.Len()
// samples; sample 0 is y0 and sample i is one step from sample i-1.
// Non-finite values are propagated as-is.
func (s *Simulator) Run(y0, k float64, g Grid) Trajectory {
	tr := make(Trajectory, g.Len())
	tr[0] = y0
	s.notify(0, 0, y0)

	for i := 1; i < len(tr); i++ {
		tr[i] = s.stepper.Step(s.f, tr[i-1], k, g.Step)
		s.notify(i, g.At(i), tr[i])
	}

	return tr
}

// Loss returns a function of k suitable for calibration: each call runs a
// fresh simulation and scores it against target with loss.
func (s *Simulator) Loss(y0 float64, g Grid, target Trajectory, loss func(a, b Trajectory) float64) func(k float64) float64 {
	return func(k float64) float64 {
		return loss(s.Run(y0, k, g), target)
	}
}

func (s *Simulator) notify(i int, t, y float64) {
	for _, obs := range s.observers {
		obs.OnStep(i, t, y)
	}
}
