package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/odefit/internal/optim"
)

const (
	DefaultProblem   = "growth"
	DefaultYInitial  = 1.0
	DefaultKInitial  = 0.1
	DefaultStepSize  = 0.1
	DefaultStepCount = 50
	DefaultMethod    = optim.MethodNelderMead
	DefaultTitle     = "ODE fit"
	DefaultXLabel    = "t"
	DefaultYLabel    = "y"
)

// ErrInvalid indicates a configuration value outside its valid range.
var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	Problem   string   `yaml:"problem"`
	YInitial  float64  `yaml:"y_initial"`
	KInitial  float64  `yaml:"k_initial"`
	StepSize  float64  `yaml:"step_size"`
	StepCount int      `yaml:"step_count"`
	Calibrate bool     `yaml:"calibrate"`
	Schemes   []string `yaml:"schemes,omitempty"`

	Method      string         `yaml:"method"`
	Calibration optim.Settings `yaml:"calibration"`

	Display DisplayConfig `yaml:"display"`
}

type DisplayConfig struct {
	Title  string `yaml:"title"`
	XLabel string `yaml:"x_label"`
	YLabel string `yaml:"y_label"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

func DefaultConfig() *Config {
	return &Config{
		Problem:     DefaultProblem,
		YInitial:    DefaultYInitial,
		KInitial:    DefaultKInitial,
		StepSize:    DefaultStepSize,
		StepCount:   DefaultStepCount,
		Calibrate:   true,
		Schemes:     []string{"euler", "rk2"},
		Method:      DefaultMethod,
		Calibration: optim.DefaultSettings(),
		Display: DisplayConfig{
			Width:  80,
			Height: 15,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.StepSize <= 0 {
		return fmt.Errorf("%w: step_size must be positive, got %g", ErrInvalid, c.StepSize)
	}
	if c.StepCount < 1 {
		return fmt.Errorf("%w: step_count must be at least 1, got %d", ErrInvalid, c.StepCount)
	}
	if c.Problem == "" {
		return fmt.Errorf("%w: problem is required", ErrInvalid)
	}
	if c.Display.Width < 0 || c.Display.Height < 0 {
		return fmt.Errorf("%w: display size must not be negative", ErrInvalid)
	}
	return nil
}

// Labels returns the display strings, falling back to fallback and then to
// the package defaults for any that are empty.
func (c *Config) Labels(fallback DisplayConfig) (title, xLabel, yLabel string) {
	pick := func(vals ...string) string {
		for _, v := range vals {
			if v != "" {
				return v
			}
		}
		return ""
	}
	return pick(c.Display.Title, fallback.Title, DefaultTitle),
		pick(c.Display.XLabel, fallback.XLabel, DefaultXLabel),
		pick(c.Display.YLabel, fallback.YLabel, DefaultYLabel)
}
