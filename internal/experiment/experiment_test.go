package experiment_test

import (
	"math"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/san-kum/odefit/internal/dynamo"
	"github.com/san-kum/odefit/internal/experiment"
	"github.com/san-kum/odefit/internal/optim"
)

func growth(y, k float64) float64 { return k * y }

func growthRef(t float64) float64 { return math.Exp(0.5 * t) }

func growthRequest(mode experiment.Mode, k0 float64) experiment.Request {
	return experiment.Request{
		Derivative: growth,
		YInitial:   1.0,
		KInitial:   k0,
		StepSize:   0.1,
		StepCount:  50,
		Mode:       mode,
		Meta:       experiment.Meta{Title: "growth"},
	}
}

var _ = Describe("Orchestrator", func() {
	var orch *experiment.Orchestrator

	BeforeEach(func() {
		orch = experiment.New()
	})

	Context("calibrate mode without a reference", func() {
		It("fails before simulating anything", func() {
			var calls atomic.Int64
			req := growthRequest(experiment.Calibrate(nil), 0.1)
			req.Derivative = func(y, k float64) float64 {
				calls.Add(1)
				return k * y
			}

			report, err := orch.Run(req)
			Expect(err).To(MatchError(experiment.ErrMissingReference))
			Expect(report).To(BeNil())
			Expect(calls.Load()).To(BeZero())
		})
	})

	Context("calibrating exponential growth", func() {
		var report *experiment.Report

		BeforeEach(func() {
			var err error
			report, err = orch.Run(growthRequest(experiment.Calibrate(growthRef), 0.1))
			Expect(err).NotTo(HaveOccurred())
		})

		It("reports Euler then RK2 on the standard grid", func() {
			Expect(report.Mode).To(Equal("calibrate"))
			Expect(report.Schemes).To(HaveLen(2))
			Expect(report.Schemes[0].Scheme).To(Equal(experiment.SchemeEuler))
			Expect(report.Schemes[1].Scheme).To(Equal(experiment.SchemeRK2))
			Expect(report.Times).To(HaveLen(51))
			for _, s := range report.Schemes {
				Expect(s.Trajectory).To(HaveLen(51))
				Expect(s.Trajectory[0]).To(Equal(1.0))
				Expect(s.Fit).NotTo(BeNil())
				Expect(s.HasSSE).To(BeTrue())
			}
		})

		It("converges both schemes close to the true k", func() {
			euler, _ := report.Scheme(experiment.SchemeEuler)
			rk2, _ := report.Scheme(experiment.SchemeRK2)

			Expect(euler.K).To(BeNumerically("~", 0.5, 0.02))
			Expect(rk2.K).To(BeNumerically("~", 0.5, 0.002))
			Expect(math.Abs(rk2.K - 0.5)).To(BeNumerically("<", math.Abs(euler.K-0.5)))
		})

		It("lands Euler on the k whose growth factor matches the reference", func() {
			euler, _ := report.Scheme(experiment.SchemeEuler)
			Expect(euler.K).To(BeNumerically("~", 10*(math.Exp(0.05)-1), 1e-4))
		})

		It("reports a near-zero SSE for each fitted trajectory", func() {
			for _, s := range report.Schemes {
				Expect(s.SSE).To(BeNumerically("<", 1e-6))
				Expect(s.SSE).To(BeNumerically("~", s.Fit.Loss, 1e-9))
			}
		})

		It("samples the reference densely for display only", func() {
			Expect(report.Reference).NotTo(BeNil())
			Expect(report.Reference.Grid.Count).To(Equal(500))
			Expect(report.Reference.Grid.Step).To(BeNumerically("~", 0.01, 1e-12))
			Expect(report.Reference.Values).To(HaveLen(501))
			Expect(report.Reference.Values[500]).To(BeNumerically("~", math.Exp(2.5), 1e-9))
		})

		It("keeps the coarse target the loss was computed against", func() {
			Expect(report.Target).To(HaveLen(51))
			Expect(report.Target[50]).To(BeNumerically("~", math.Exp(2.5), 1e-9))
		})
	})

	Context("fixed mode", func() {
		It("matches a manual forward simulation value for value", func() {
			report, err := orch.Run(growthRequest(experiment.Fixed(growthRef), 0.5))
			Expect(err).NotTo(HaveOccurred())

			k, h := 0.5, 0.1
			euler := make(dynamo.Trajectory, 51)
			heun := make(dynamo.Trajectory, 51)
			euler[0], heun[0] = 1.0, 1.0
			for i := 1; i <= 50; i++ {
				euler[i] = euler[i-1] + (k*euler[i-1])*h

				s1 := k * heun[i-1]
				p := heun[i-1] + s1*h
				s2 := k * p
				heun[i] = heun[i-1] + ((s1+s2)/2)*h
			}

			e, _ := report.Scheme(experiment.SchemeEuler)
			r, _ := report.Scheme(experiment.SchemeRK2)
			Expect(e.K).To(Equal(0.5))
			Expect(r.K).To(Equal(0.5))
			Expect(e.Fit).To(BeNil())
			Expect(r.Fit).To(BeNil())
			Expect(e.Trajectory).To(Equal(euler))
			Expect(r.Trajectory).To(Equal(heun))
		})

		It("gives RK2 a smaller SSE than Euler at the true k", func() {
			report, err := orch.Run(growthRequest(experiment.Fixed(growthRef), 0.5))
			Expect(err).NotTo(HaveOccurred())

			e, _ := report.Scheme(experiment.SchemeEuler)
			r, _ := report.Scheme(experiment.SchemeRK2)
			Expect(r.SSE).To(BeNumerically("<", e.SSE))
		})

		It("omits SSE and the dense reference without a reference", func() {
			report, err := orch.Run(growthRequest(experiment.Fixed(nil), 0.5))
			Expect(err).NotTo(HaveOccurred())

			Expect(report.Reference).To(BeNil())
			Expect(report.Target).To(BeNil())
			for _, s := range report.Schemes {
				Expect(s.HasSSE).To(BeFalse())
				Expect(s.SSE).To(BeZero())
			}
		})

		It("treats a nil mode as fixed without reference", func() {
			report, err := orch.Run(growthRequest(nil, 0.5))
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Mode).To(Equal("fixed"))
		})
	})

	Context("invalid requests", func() {
		It("rejects a bad grid", func() {
			req := growthRequest(experiment.Fixed(nil), 0.5)
			req.StepSize = 0
			_, err := orch.Run(req)
			Expect(err).To(MatchError(experiment.ErrInvalidConfig))
			Expect(err).To(MatchError(dynamo.ErrInvalidGrid))
		})

		It("rejects a missing derivative", func() {
			req := growthRequest(experiment.Fixed(nil), 0.5)
			req.Derivative = nil
			_, err := orch.Run(req)
			Expect(err).To(MatchError(experiment.ErrInvalidConfig))
		})

		It("rejects an unknown calibration method", func() {
			orch = experiment.New(experiment.WithCalibration("annealing", optim.Settings{}))
			_, err := orch.Run(growthRequest(experiment.Calibrate(growthRef), 0.1))
			Expect(err).To(MatchError(experiment.ErrInvalidConfig))
			Expect(err).To(MatchError(optim.ErrUnknownMethod))
		})
	})

	Context("with grid search calibration and extra schemes", func() {
		It("fits every configured scheme", func() {
			reg := experiment.NewRegistry()
			schemes, err := reg.GetSchemes([]string{"euler", "rk2", "rk4"})
			Expect(err).NotTo(HaveOccurred())

			orch = experiment.New(
				experiment.WithSchemes(schemes...),
				experiment.WithCalibration(optim.MethodGrid, optim.Settings{Tolerance: 1e-9}),
			)
			report, err := orch.Run(growthRequest(experiment.Calibrate(growthRef), 0.1))
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Schemes).To(HaveLen(3))

			rk4, ok := report.Scheme(experiment.SchemeRK4)
			Expect(ok).To(BeTrue())
			Expect(rk4.K).To(BeNumerically("~", 0.5, 1e-4))
		})
	})

	Context("calibrating from a divergent initial guess", func() {
		It("fails instead of reporting an unsearched k", func() {
			req := growthRequest(experiment.Calibrate(growthRef), 5)
			req.Derivative = func(y, k float64) float64 {
				if k > 3 {
					return math.Inf(1)
				}
				return k * y
			}

			report, err := orch.Run(req)
			Expect(err).To(MatchError(optim.ErrNoResult))
			Expect(report).To(BeNil())
		})
	})

	Context("logging", func() {
		It("routes diagnostics through the injected logger", func() {
			core, logs := observer.New(zapcore.DebugLevel)
			orch = experiment.New(experiment.WithLogger(zap.New(core)))

			_, err := orch.Run(growthRequest(experiment.Fixed(growthRef), 0.5))
			Expect(err).NotTo(HaveOccurred())

			Expect(logs.FilterMessage("run started").Len()).To(Equal(1))
			Expect(logs.FilterMessage("scheme finished").Len()).To(Equal(2))
			Expect(logs.FilterMessage("step").Len()).To(Equal(2 * 51))
		})

		It("warns when a trajectory diverges", func() {
			core, logs := observer.New(zapcore.WarnLevel)
			orch = experiment.New(experiment.WithLogger(zap.New(core)))

			req := growthRequest(experiment.Fixed(nil), 0.5)
			req.Derivative = func(y, k float64) float64 { return k * y * y * y }
			req.YInitial = 10

			report, err := orch.Run(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Schemes[0].Trajectory.IsValid()).To(BeFalse())
			Expect(logs.FilterMessage("trajectory is not finite").Len()).To(Equal(2))
		})

		It("stays quiet about steps above debug level", func() {
			core, logs := observer.New(zapcore.InfoLevel)
			orch = experiment.New(experiment.WithLogger(zap.New(core)))

			_, err := orch.Run(growthRequest(experiment.Fixed(nil), 0.5))
			Expect(err).NotTo(HaveOccurred())
			Expect(logs.FilterMessage("step").Len()).To(BeZero())
		})
	})
})

var _ = Describe("Registry", func() {
	reg := experiment.NewRegistry()

	It("lists the built-in problems", func() {
		Expect(reg.ListProblems()).To(ConsistOf("cooling", "cubic", "decay", "growth", "logistic"))
	})

	It("rejects unknown names", func() {
		_, err := reg.GetProblem("lorenz")
		Expect(err).To(HaveOccurred())
		_, err = reg.GetScheme("verlet")
		Expect(err).To(HaveOccurred())
	})

	It("refuses to calibrate a problem without reference", func() {
		p, err := reg.GetProblem("cubic")
		Expect(err).NotTo(HaveOccurred())

		_, err = experiment.New().Run(experiment.Request{
			Derivative: p.Derivative,
			YInitial:   p.YInitial,
			KInitial:   p.KInitial,
			StepSize:   0.1,
			StepCount:  20,
			Mode:       p.Mode(true),
		})
		Expect(err).To(MatchError(experiment.ErrMissingReference))
	})

	DescribeTable("recovers the generating k of each reference problem",
		func(name string, tol float64) {
			p, err := reg.GetProblem(name)
			Expect(err).NotTo(HaveOccurred())

			report, err := experiment.New().Run(experiment.Request{
				Derivative: p.Derivative,
				YInitial:   p.YInitial,
				KInitial:   p.KInitial,
				StepSize:   0.05,
				StepCount:  100,
				Mode:       p.Mode(true),
			})
			Expect(err).NotTo(HaveOccurred())

			rk2, _ := report.Scheme(experiment.SchemeRK2)
			Expect(rk2.K).To(BeNumerically("~", p.TrueK, tol))
		},
		Entry("growth", "growth", 1e-3),
		Entry("decay", "decay", 1e-3),
		Entry("logistic", "logistic", 1e-2),
		Entry("cooling", "cooling", 1e-3),
	)
})
