// Package config loads the run configuration and the cell library.
package config

import (
	"bytes"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sort"

	"bmfapprox/metric"
	"bmfapprox/ranking"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Search     SearchConfig      `yaml:"search"`
	BMF        BMFConfig         `yaml:"bmf"`
	Evaluation EvaluationConfig  `yaml:"evaluation"`
	Library    LibraryConfig     `yaml:"library"`
	Tools      map[string]string `yaml:"tools" validate:"dive,keys,required,endkeys,required"`
	Logging    LoggingConfig     `yaml:"logging"`
	Output     OutputConfig      `yaml:"output"`
}

type SearchConfig struct {
	Tracks        int       `yaml:"tracks" validate:"min=1"`
	StepSize      int       `yaml:"step_size" validate:"min=1"`
	Epsilon       float64   `yaml:"epsilon" validate:"gte=0"`
	Thresholds    []float64 `yaml:"thresholds" validate:"ascending,dive,gte=0"`
	Parallel      bool      `yaml:"parallel"`
	Workers       int       `yaml:"workers" validate:"gte=0"`
	MaxIterations int       `yaml:"max_iterations" validate:"gte=0"`
	Policy        string    `yaml:"policy" validate:"omitempty,oneof=gradient least-error nearest incremental"`
}

type BMFConfig struct {
	Weighted bool `yaml:"weighted"`
	// Persist writes each factorization next to the run output so a later
	// run can reuse it.
	Persist bool `yaml:"persist"`
}

type EvaluationConfig struct {
	Metric metric.Kind `yaml:"metric"`
	Timing bool        `yaml:"timing"`
	// Samples is the number of random vectors drawn for designs too wide
	// to enumerate and without a testbench.
	Samples int    `yaml:"samples" validate:"gte=0"`
	Seed    uint64 `yaml:"seed"`
}

type LibraryConfig struct {
	// Path to a cell library. Empty selects the unit library.
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

type OutputConfig struct {
	Dir string `yaml:"dir" validate:"required"`
}

func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			Tracks:   3,
			StepSize: 1,
			Epsilon:  0.005,
			Parallel: true,
			Workers:  runtime.NumCPU(),
			Policy:   ranking.GradientPolicy,
		},
		Evaluation: EvaluationConfig{
			Metric:  metric.HammingDistance,
			Samples: 10000,
			Seed:    1,
		},
		Logging: LoggingConfig{Level: "info"},
		Output:  OutputConfig{Dir: "out"},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("ascending", validateAscending); err != nil {
		panic(err)
	}
	return v
}

// validateAscending accepts float slices whose entries strictly increase.
func validateAscending(fl validator.FieldLevel) bool {
	values, ok := fl.Field().Interface().([]float64)
	if !ok {
		return false
	}
	for i := 1; i < len(values); i++ {
		if values[i] <= values[i-1] {
			return false
		}
	}
	return true
}

// Parse decodes data over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrapf(ErrInvalidConfig, "could not decode: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the configuration at path. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := DefaultConfig()
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read config %q", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %q", path)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "%v", err)
	}
	if _, err := ranking.ParsePolicy(c.Search.Policy); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "%v", err)
	}
	return nil
}

// CheckTools resolves every configured tool binary on PATH and reports the
// ones that cannot be found.
func (c *Config) CheckTools() (map[string]string, error) {
	names := make([]string, 0, len(c.Tools))
	for name := range c.Tools {
		names = append(names, name)
	}
	sort.Strings(names)

	resolved := make(map[string]string, len(names))
	missing := make([]string, 0)
	for _, name := range names {
		p, err := exec.LookPath(c.Tools[name])
		if err != nil {
			missing = append(missing, name+" ("+c.Tools[name]+")")
			continue
		}
		resolved[name] = p
	}
	if len(missing) > 0 {
		return resolved, errors.Wrapf(ErrInvalidConfig, "tools not found: %v", missing)
	}
	return resolved, nil
}
