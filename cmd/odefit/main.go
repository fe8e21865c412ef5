package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/odefit/internal/config"
	"github.com/san-kum/odefit/internal/experiment"
	"github.com/san-kum/odefit/internal/export"
	"github.com/san-kum/odefit/internal/metrics"
	"github.com/san-kum/odefit/internal/optim"
	"github.com/san-kum/odefit/internal/viz"
)

var (
	configFile string
	presetName string
	logLevel   string

	yInitial  float64
	kInitial  float64
	stepSize  float64
	stepCount int
	calibrate bool
	method    string
	tolerance float64
	maxIter   int
	schemes   []string

	title  string
	xLabel string
	yLabel string

	pngPath  string
	jsonPath string

	logger *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "odefit",
		Short:         "fit the rate constant of a scalar ODE with Euler and RK2",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(logLevel)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	fitCmd := &cobra.Command{
		Use:   "fit [problem]",
		Short: "calibrate k per scheme and plot against the reference",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runFit,
	}
	addRunFlags(fitCmd)
	fitCmd.Flags().StringVar(&pngPath, "png", "", "write the figure to this PNG file")
	fitCmd.Flags().StringVar(&jsonPath, "json", "", "write the report to this JSON file (- for stdout)")

	viewCmd := &cobra.Command{
		Use:   "view [problem]",
		Short: "run a fit and browse the result interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runView,
	}
	addRunFlags(viewCmd)

	compareCmd := &cobra.Command{
		Use:   "compare [problem] [scheme1] [scheme2] ...",
		Short: "compare schemes at a fixed k",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCompare,
	}
	addRunFlags(compareCmd)

	problemsCmd := &cobra.Command{
		Use:   "problems",
		Short: "list built-in problems and schemes",
		Run: func(cmd *cobra.Command, args []string) {
			registry := experiment.NewRegistry()
			fmt.Println("problems:")
			for _, name := range registry.ListProblems() {
				p, _ := registry.GetProblem(name)
				fmt.Printf("  %-10s %s\n", name, p.Description)
			}
			fmt.Printf("\nschemes: %s\n", strings.Join(registry.ListIntegrators(), ", "))
			fmt.Printf("methods: %s\n", strings.Join(optim.Methods(), ", "))
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [problem]",
		Short: "list available presets for a problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for problem: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage configuration files",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a default configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); err == nil {
				return fmt.Errorf("%s already exists", args[0])
			}
			if err := config.Save(args[0], config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}
	configShowCmd := &cobra.Command{
		Use:   "show [problem]",
		Short: "print the configuration a run would use",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := resolveConfig(cmd, args)
			if err != nil {
				return err
			}
			return yaml.NewEncoder(os.Stdout).Encode(cfg)
		},
	}
	addRunFlags(configShowCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)

	rootCmd.AddCommand(fitCmd, viewCmd, compareCmd, problemsCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&presetName, "preset", "", "use preset configuration")
	f.Float64Var(&yInitial, "y0", config.DefaultYInitial, "initial value y(0)")
	f.Float64Var(&kInitial, "k0", config.DefaultKInitial, "initial guess for k")
	f.Float64Var(&stepSize, "dt", config.DefaultStepSize, "step size")
	f.IntVar(&stepCount, "steps", config.DefaultStepCount, "number of steps")
	f.BoolVar(&calibrate, "calibrate", true, "calibrate k against the reference")
	f.StringVar(&method, "method", config.DefaultMethod, "calibration method")
	f.Float64Var(&tolerance, "tol", 0, "calibration loss tolerance")
	f.IntVar(&maxIter, "max-iter", 0, "calibration iteration limit")
	f.StringSliceVar(&schemes, "schemes", nil, "schemes to run (default euler,rk2)")
	f.StringVar(&title, "title", "", "plot title")
	f.StringVar(&xLabel, "xlabel", "", "x axis label")
	f.StringVar(&yLabel, "ylabel", "", "y axis label")
}

// resolveConfig layers built-in defaults, the problem's own initial values,
// a preset or config file, and finally any flags set on the command line.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, experiment.Problem, error) {
	if presetName != "" && configFile != "" {
		return nil, experiment.Problem{}, errors.New("--preset and --config are mutually exclusive")
	}

	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, experiment.Problem{}, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if len(args) > 0 {
		cfg.Problem = args[0]
	}

	registry := experiment.NewRegistry()
	problem, err := registry.GetProblem(cfg.Problem)
	if err != nil {
		return nil, experiment.Problem{}, err
	}

	switch {
	case presetName != "":
		p := config.GetPreset(cfg.Problem, presetName)
		if p == nil {
			return nil, experiment.Problem{}, fmt.Errorf("unknown preset: %s (available: %v)", presetName, config.ListPresets(cfg.Problem))
		}
		cfg = p
	case configFile == "":
		cfg.YInitial = problem.YInitial
		cfg.KInitial = problem.KInitial
	}

	flags := cmd.Flags()
	if flags.Changed("y0") {
		cfg.YInitial = yInitial
	}
	if flags.Changed("k0") {
		cfg.KInitial = kInitial
	}
	if flags.Changed("dt") {
		cfg.StepSize = stepSize
	}
	if flags.Changed("steps") {
		cfg.StepCount = stepCount
	}
	if flags.Changed("calibrate") {
		cfg.Calibrate = calibrate
	}
	if flags.Changed("method") {
		cfg.Method = method
	}
	if flags.Changed("tol") {
		cfg.Calibration.Tolerance = tolerance
	}
	if flags.Changed("max-iter") {
		cfg.Calibration.MaxIterations = maxIter
	}
	if flags.Changed("schemes") {
		cfg.Schemes = schemes
	}
	if flags.Changed("title") {
		cfg.Display.Title = title
	}
	if flags.Changed("xlabel") {
		cfg.Display.XLabel = xLabel
	}
	if flags.Changed("ylabel") {
		cfg.Display.YLabel = yLabel
	}

	if err := cfg.Validate(); err != nil {
		return nil, experiment.Problem{}, err
	}
	return cfg, problem, nil
}

func runExperiment(cmd *cobra.Command, args []string) (*config.Config, *experiment.Report, error) {
	cfg, problem, err := resolveConfig(cmd, args)
	if err != nil {
		return nil, nil, err
	}

	registry := experiment.NewRegistry()
	selected, err := registry.GetSchemes(cfg.Schemes)
	if err != nil {
		return nil, nil, err
	}

	t, x, y := cfg.Labels(config.DisplayConfig{
		Title:  problem.Meta.Title,
		XLabel: problem.Meta.XLabel,
		YLabel: problem.Meta.YLabel,
	})

	o := experiment.New(
		experiment.WithLogger(logger.With(zap.String("problem", problem.Name))),
		experiment.WithSchemes(selected...),
		experiment.WithCalibration(cfg.Method, cfg.Calibration),
	)

	report, err := o.Run(experiment.Request{
		Derivative: problem.Derivative,
		YInitial:   cfg.YInitial,
		KInitial:   cfg.KInitial,
		StepSize:   cfg.StepSize,
		StepCount:  cfg.StepCount,
		Mode:       problem.Mode(cfg.Calibrate),
		Meta:       experiment.Meta{Title: t, XLabel: x, YLabel: y},
	})
	if errors.Is(err, experiment.ErrMissingReference) {
		return nil, nil, fmt.Errorf("problem %s has no reference solution; rerun with --calibrate=false", problem.Name)
	}
	if err != nil {
		return nil, nil, err
	}
	return cfg, report, nil
}

func runFit(cmd *cobra.Command, args []string) error {
	cfg, report, err := runExperiment(cmd, args)
	if err != nil {
		return err
	}

	if jsonPath == "-" {
		return export.WriteJSON(os.Stdout, report)
	}

	fmt.Println(viz.Summary(report))
	fmt.Println()
	fmt.Println(viz.Plot(report, viz.PlotOptions{Width: cfg.Display.Width, Height: cfg.Display.Height}))

	if pngPath != "" {
		if err := export.SavePNG(pngPath, report, export.DefaultFigureOptions()); err != nil {
			return err
		}
		fmt.Printf("\nfigure: %s\n", pngPath)
	}
	if jsonPath != "" {
		if err := export.SaveJSON(jsonPath, report); err != nil {
			return err
		}
		fmt.Printf("report: %s\n", jsonPath)
	}
	return nil
}

func runView(cmd *cobra.Command, args []string) error {
	_, report, err := runExperiment(cmd, args)
	if err != nil {
		return err
	}
	return viz.RunViewer(report)
}

// runCompare runs each scheme on its own at the configured k so the timings
// are per scheme.
func runCompare(cmd *cobra.Command, args []string) error {
	cfg, problem, err := resolveConfig(cmd, args[:1])
	if err != nil {
		return err
	}
	names := args[1:]
	if len(names) == 0 {
		names = cfg.Schemes
	}

	registry := experiment.NewRegistry()
	fmt.Printf("comparing schemes for %s (k=%.4f, dt=%g, steps=%d)\n\n", problem.Name, cfg.KInitial, cfg.StepSize, cfg.StepCount)
	fmt.Printf("%-12s  %12s  %12s  %12s  %12s  %12s\n", "scheme", "final_y", "sse", "rmse", "max_abs", "time_us")
	fmt.Println(strings.Repeat("-", 82))

	for _, name := range names {
		scheme, err := registry.GetScheme(name)
		if err != nil {
			fmt.Printf("%-12s  error: %v\n", name, err)
			continue
		}

		o := experiment.New(experiment.WithLogger(logger), experiment.WithSchemes(scheme))
		start := time.Now()
		report, err := o.Run(experiment.Request{
			Derivative: problem.Derivative,
			YInitial:   cfg.YInitial,
			KInitial:   cfg.KInitial,
			StepSize:   cfg.StepSize,
			StepCount:  cfg.StepCount,
			Mode:       problem.Mode(false),
		})
		elapsed := time.Since(start)
		if err != nil {
			fmt.Printf("%-12s  error: %v\n", name, err)
			continue
		}

		res := report.Schemes[0]
		sse, rmse, maxAbs := "-", "-", "-"
		if report.Target != nil {
			sse = fmt.Sprintf("%.4e", res.SSE)
			rmse = fmt.Sprintf("%.4e", metrics.RMSE(res.Trajectory, report.Target))
			maxAbs = fmt.Sprintf("%.4e", metrics.MaxAbs(res.Trajectory, report.Target))
		}
		fmt.Printf("%-12s  %12.6f  %12s  %12s  %12s  %12d\n", name, res.Trajectory.Last(), sse, rmse, maxAbs, elapsed.Microseconds())
	}

	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
