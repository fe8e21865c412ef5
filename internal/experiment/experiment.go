package experiment

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/odefit/internal/dynamo"
	"github.com/san-kum/odefit/internal/metrics"
	"github.com/san-kum/odefit/internal/optim"
)

var (
	// ErrMissingReference indicates calibration was requested without a reference function.
	ErrMissingReference = errors.New("experiment: calibration requires a reference function")

	// ErrInvalidConfig indicates a request that cannot be simulated.
	ErrInvalidConfig = errors.New("experiment: invalid configuration")
)

// DenseStep is the largest step used for the display-only reference curve.
const DenseStep = 0.01

// Mode selects, once per run, whether k is calibrated or used as given.
type Mode interface {
	Reference() dynamo.Reference
	Calibrates() bool
	String() string
}

type calibrateMode struct{ ref dynamo.Reference }

func (m calibrateMode) Reference() dynamo.Reference { return m.ref }
func (m calibrateMode) Calibrates() bool            { return true }
func (m calibrateMode) String() string              { return "calibrate" }

type fixedMode struct{ ref dynamo.Reference }

func (m fixedMode) Reference() dynamo.Reference { return m.ref }
func (m fixedMode) Calibrates() bool            { return false }
func (m fixedMode) String() string              { return "fixed" }

// Calibrate fits k for every scheme against ref. ref must not be nil.
func Calibrate(ref dynamo.Reference) Mode { return calibrateMode{ref: ref} }

// Fixed uses the initial k as-is. ref may be nil; when present it is only
// used to report the error of each trajectory.
func Fixed(ref dynamo.Reference) Mode { return fixedMode{ref: ref} }

// Meta is display metadata passed through to the presentation layer.
type Meta struct {
	Title  string `json:"title,omitempty"`
	XLabel string `json:"x_label,omitempty"`
	YLabel string `json:"y_label,omitempty"`
}

type Request struct {
	Derivative dynamo.Derivative
	YInitial   float64
	KInitial   float64
	StepSize   float64
	StepCount  int
	Mode       Mode
	Meta       Meta
}

// Scheme binds a display name to a step rule.
type Scheme struct {
	Name    string
	Stepper dynamo.Stepper
}

type SchemeResult struct {
	Scheme     string            `json:"scheme"`
	Trajectory dynamo.Trajectory `json:"trajectory"`
	K          float64           `json:"k"`
	SSE        float64           `json:"sse,omitempty"`
	HasSSE     bool              `json:"has_sse"`
	Fit        *optim.Fit        `json:"fit,omitempty"`
}

// DenseReference is the reference sampled on a finer grid for display.
type DenseReference struct {
	Grid   dynamo.Grid       `json:"grid"`
	Times  []float64         `json:"times"`
	Values dynamo.Trajectory `json:"values"`
}

type Report struct {
	Mode      string            `json:"mode"`
	Grid      dynamo.Grid       `json:"grid"`
	Times     []float64         `json:"times"`
	YInitial  float64           `json:"y_initial"`
	KInitial  float64           `json:"k_initial"`
	Schemes   []SchemeResult    `json:"schemes"`
	Target    dynamo.Trajectory `json:"target,omitempty"`
	Reference *DenseReference   `json:"reference,omitempty"`
	Meta      Meta              `json:"meta"`
}

// Scheme returns the result for the named scheme.
func (r *Report) Scheme(name string) (SchemeResult, bool) {
	for _, s := range r.Schemes {
		if s.Scheme == name {
			return s, true
		}
	}
	return SchemeResult{}, false
}

// Orchestrator runs every configured scheme through the same request.
type Orchestrator struct {
	schemes       []Scheme
	newCalibrator func() (optim.Calibrator, error)
	log           *zap.Logger
}

type Option func(*Orchestrator)

func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

func WithSchemes(schemes ...Scheme) Option {
	return func(o *Orchestrator) {
		if len(schemes) > 0 {
			o.schemes = schemes
		}
	}
}

// WithCalibration selects the calibration method used in calibrate mode.
func WithCalibration(method string, settings optim.Settings) Option {
	return func(o *Orchestrator) {
		o.newCalibrator = func() (optim.Calibrator, error) {
			return optim.New(method, settings)
		}
	}
}

// New returns an orchestrator running Euler and RK2 with Nelder-Mead
// calibration and no logging, unless overridden by opts.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		schemes: DefaultSchemes(),
		newCalibrator: func() (optim.Calibrator, error) {
			return optim.NewNelderMead(optim.DefaultSettings()), nil
		},
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run validates req, then simulates (and in calibrate mode fits) every
// scheme. Configuration errors are returned before any simulation.
func (o *Orchestrator) Run(req Request) (*Report, error) {
	mode := req.Mode
	if mode == nil {
		mode = Fixed(nil)
	}
	ref := mode.Reference()

	if mode.Calibrates() && ref == nil {
		return nil, ErrMissingReference
	}
	if len(o.schemes) == 0 {
		return nil, fmt.Errorf("%w: no schemes configured", ErrInvalidConfig)
	}
	if req.Derivative == nil {
		return nil, fmt.Errorf("%w: derivative function is required", ErrInvalidConfig)
	}
	grid, err := dynamo.NewGrid(req.StepSize, req.StepCount)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	o.log.Info("run started",
		zap.String("mode", mode.String()),
		zap.Float64("y_initial", req.YInitial),
		zap.Float64("k_initial", req.KInitial),
		zap.Float64("step_size", grid.Step),
		zap.Int("step_count", grid.Count),
		zap.Bool("reference", ref != nil),
	)

	// One independent calibrator per scheme; they never share search state.
	calibrators := make([]optim.Calibrator, len(o.schemes))
	if mode.Calibrates() {
		for i := range calibrators {
			if calibrators[i], err = o.newCalibrator(); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
			}
		}
	}

	var target dynamo.Trajectory
	if ref != nil {
		target = grid.Sample(ref)
	}

	results := make([]SchemeResult, len(o.schemes))
	var g errgroup.Group
	for i, scheme := range o.schemes {
		i, scheme := i, scheme
		g.Go(func() error {
			res, err := o.runScheme(scheme, calibrators[i], req, grid, target)
			if err != nil {
				return fmt.Errorf("%s: %w", scheme.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		Mode:     mode.String(),
		Grid:     grid,
		Times:    grid.Times(),
		YInitial: req.YInitial,
		KInitial: req.KInitial,
		Schemes:  results,
		Target:   target,
		Meta:     req.Meta,
	}

	if ref != nil {
		fine := grid.Refine(DenseStep)
		report.Reference = &DenseReference{
			Grid:   fine,
			Times:  fine.Times(),
			Values: fine.Sample(ref),
		}
	}

	return report, nil
}

// runScheme fits k when calibrator is non-nil, then produces the final
// trajectory and its error against target.
func (o *Orchestrator) runScheme(scheme Scheme, calibrator optim.Calibrator, req Request, grid dynamo.Grid, target dynamo.Trajectory) (SchemeResult, error) {
	log := o.log.With(zap.String("scheme", scheme.Name))
	res := SchemeResult{Scheme: scheme.Name, K: req.KInitial}

	if calibrator != nil {
		sim := dynamo.New(req.Derivative, scheme.Stepper)
		fit, err := calibrator.Calibrate(sim.Loss(req.YInitial, grid, target, metrics.SSE), req.KInitial)
		if err != nil {
			return res, fmt.Errorf("calibrate: %w", err)
		}

		log.Debug("calibration finished",
			zap.Float64("k", fit.K),
			zap.Float64("loss", fit.Loss),
			zap.Int("iterations", fit.Iterations),
			zap.Int("evaluations", fit.Evaluations),
			zap.String("status", fit.Status),
		)
		if !fit.Converged {
			log.Warn("calibration stopped before converging", zap.String("status", fit.Status))
		}

		res.K = fit.K
		res.Fit = &fit
	}

	sim := dynamo.New(req.Derivative, scheme.Stepper)
	if log.Core().Enabled(zap.DebugLevel) {
		sim.AddObserver(dynamo.ObserverFunc(func(i int, t, y float64) {
			log.Debug("step", zap.Int("i", i), zap.Float64("t", t), zap.Float64("y", y))
		}))
	}
	res.Trajectory = sim.Run(req.YInitial, res.K, grid)
	if !res.Trajectory.IsValid() {
		log.Warn("trajectory is not finite", zap.Float64("k", res.K))
	}

	fields := []zap.Field{zap.Float64("k", res.K), zap.Float64("final", res.Trajectory.Last())}
	if target != nil {
		res.SSE = metrics.SSE(res.Trajectory, target)
		res.HasSSE = true
		fields = append(fields, zap.Float64("sse", res.SSE))
	}
	log.Info("scheme finished", fields...)

	return res, nil
}
