package config

import (
	"fmt"
	"os"

	"github.com/san-kum/lscsim/internal/dynamo"
	"gopkg.in/yaml.v3"
)

const (
	DefaultParticles    = 20000
	DefaultGamma        = 1000.0
	DefaultEnergySpread = 1e-4
	DefaultCurrent      = 100.0
	DefaultRadius       = 100e-6
	DefaultWavelength   = 800e-9
	DefaultModulation   = 3.0
	DefaultCompression  = 0.6
	DefaultHarmonics    = 10
	DefaultGridPoints   = 256
	DefaultDriftLength  = 1.0
	DefaultEvalPoints   = 51
	DefaultRTol         = 1e-6
	DefaultATol         = 1e-10
	DefaultMaxSteps     = 100000
)

// Solver, integrator, loading and interpolation names accepted by Validate.
const (
	SolverHarmonic = "harmonic"
	SolverGrid     = "grid"

	LoadingRandom = "random"
	LoadingQuiet  = "quiet"

	InterpLinear  = "linear"
	InterpNearest = "nearest"
)

var integratorNames = map[string]bool{"rk45": true, "rk4": true, "euler": true, "leapfrog": true}

type Config struct {
	Solver     string      `yaml:"solver"`
	Integrator string      `yaml:"integrator"`
	Loading    string      `yaml:"loading"`
	Seed       int64       `yaml:"seed"`
	Beam       BeamConfig  `yaml:"beam"`
	Laser      LaserConfig `yaml:"laser"`
	Field      FieldConfig `yaml:"field"`
	Drift      DriftConfig `yaml:"drift"`
}

type BeamConfig struct {
	Particles    int     `yaml:"particles"`
	Gamma        float64 `yaml:"gamma"`
	EnergySpread float64 `yaml:"energy_spread"`
	Current      float64 `yaml:"current"`
	Radius       float64 `yaml:"radius"`
}

// LaserConfig describes the seed laser and the dispersive section.
// Modulation is the amplitude ratio A/σ_η0; Compression is k·R56·σ_η0.
type LaserConfig struct {
	Wavelength  float64 `yaml:"wavelength"`
	Modulation  float64 `yaml:"modulation"`
	Compression float64 `yaml:"compression"`
}

type FieldConfig struct {
	Harmonics     int    `yaml:"harmonics"`
	GridPoints    int    `yaml:"grid_points"`
	Interpolation string `yaml:"interpolation"`
	Parallel      bool   `yaml:"parallel"`
}

type DriftConfig struct {
	Length     float64 `yaml:"length"`
	EvalPoints int     `yaml:"eval_points"`
	RTol       float64 `yaml:"rtol"`
	ATol       float64 `yaml:"atol"`
	MaxStep    float64 `yaml:"max_step"`
	Step       float64 `yaml:"step"`
	MaxSteps   int     `yaml:"max_steps"`
}

func DefaultConfig() *Config {
	return &Config{
		Solver:     SolverHarmonic,
		Integrator: "rk45",
		Loading:    LoadingRandom,
		Seed:       1,
		Beam: BeamConfig{
			Particles:    DefaultParticles,
			Gamma:        DefaultGamma,
			EnergySpread: DefaultEnergySpread,
			Current:      DefaultCurrent,
			Radius:       DefaultRadius,
		},
		Laser: LaserConfig{
			Wavelength:  DefaultWavelength,
			Modulation:  DefaultModulation,
			Compression: DefaultCompression,
		},
		Field: FieldConfig{
			Harmonics:     DefaultHarmonics,
			GridPoints:    DefaultGridPoints,
			Interpolation: InterpLinear,
		},
		Drift: DriftConfig{
			Length:     DefaultDriftLength,
			EvalPoints: DefaultEvalPoints,
			RTol:       DefaultRTol,
			ATol:       DefaultATol,
			MaxSteps:   DefaultMaxSteps,
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
		return nil, err
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

// Clone returns an independent copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// Validate rejects configurations that cannot produce a run. All errors
// wrap dynamo.ErrDomain.
func (c *Config) Validate() error {
	switch c.Solver {
	case SolverHarmonic:
		if c.Field.Harmonics <= 0 {
			return domainErr("field.harmonics must be positive, got %d", c.Field.Harmonics)
		}
	case SolverGrid:
		if c.Field.GridPoints <= 0 {
			return domainErr("field.grid_points must be positive, got %d", c.Field.GridPoints)
		}
		if c.Field.Interpolation != InterpLinear && c.Field.Interpolation != InterpNearest {
			return domainErr("unknown interpolation %q", c.Field.Interpolation)
		}
	default:
		return domainErr("unknown solver %q", c.Solver)
	}
	if !integratorNames[c.Integrator] {
		return domainErr("unknown integrator %q", c.Integrator)
	}
	if c.Loading != LoadingRandom && c.Loading != LoadingQuiet {
		return domainErr("unknown loading %q", c.Loading)
	}
	if c.Beam.Particles <= 0 {
		return domainErr("beam.particles must be positive, got %d", c.Beam.Particles)
	}
	if c.Beam.Gamma <= 1 {
		return domainErr("beam.gamma must exceed 1, got %g", c.Beam.Gamma)
	}
	if c.Beam.EnergySpread <= 0 {
		return domainErr("beam.energy_spread must be positive, got %g", c.Beam.EnergySpread)
	}
	if c.Beam.Current < 0 {
		return domainErr("beam.current must be non-negative, got %g", c.Beam.Current)
	}
	if c.Beam.Radius <= 0 {
		return domainErr("beam.radius must be positive, got %g", c.Beam.Radius)
	}
	if c.Laser.Wavelength <= 0 {
		return domainErr("laser.wavelength must be positive, got %g", c.Laser.Wavelength)
	}
	if c.Drift.Length <= 0 {
		return domainErr("drift.length must be positive, got %g", c.Drift.Length)
	}
	if c.Drift.EvalPoints < 2 {
		return domainErr("drift.eval_points must be at least 2, got %d", c.Drift.EvalPoints)
	}
	if c.Integrator == "rk45" {
		if c.Drift.RTol <= 0 || c.Drift.ATol <= 0 {
			return domainErr("drift tolerances must be positive (rtol=%g, atol=%g)", c.Drift.RTol, c.Drift.ATol)
		}
	}
	if c.Drift.MaxStep < 0 || c.Drift.Step < 0 {
		return domainErr("drift step limits must be non-negative")
	}
	return nil
}

func domainErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", dynamo.ErrDomain, fmt.Sprintf(format, args...))
}
