package automation

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/lscsim/internal/config"
	"github.com/san-kum/lscsim/internal/dynamo"
	"github.com/san-kum/lscsim/internal/experiment"
)

// Scenario defines a scripted sequence of runs sharing a base configuration
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Preset      string         `yaml:"preset"`
	Steps       []ScenarioStep `yaml:"steps"`
	Sweeps      []SweepSpec    `yaml:"sweeps"`
}

// ScenarioStep is a single run: the base configuration plus overrides
type ScenarioStep struct {
	Name       string             `yaml:"name"`
	Solver     string             `yaml:"solver"`
	Integrator string             `yaml:"integrator"`
	Params     map[string]float64 `yaml:"params"`
	SaveAs     string             `yaml:"save_as"`
}

// SweepSpec is the yaml form of a ParameterSweep
type SweepSpec struct {
	Param string  `yaml:"param"`
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
	Steps int     `yaml:"steps"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	return &scenario, nil
}

// Base returns the configuration every step starts from.
func (s *Scenario) Base() (*config.Config, error) {
	if s.Preset == "" {
		return config.DefaultConfig(), nil
	}
	cfg := config.GetPreset(s.Preset)
	if cfg == nil {
		return nil, fmt.Errorf("%w: unknown preset %q", dynamo.ErrDomain, s.Preset)
	}
	return cfg, nil
}

// Runner executes scenarios, sweeps and seed ensembles. Independent runs
// execute concurrently on at most Workers goroutines; each run stays
// sequential.
type Runner struct {
	Registry *experiment.Registry
	Logger   *zap.Logger
	Workers  int
}

func NewRunner(reg *experiment.Registry, logger *zap.Logger, workers int) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = dynamo.DefaultWorkers
	}
	return &Runner{Registry: reg, Logger: logger, Workers: workers}
}

// StepResult pairs a scenario step with its run.
type StepResult struct {
	Step   ScenarioStep
	Result *experiment.Result
}

// RunScenario executes all steps of a scenario in order.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) ([]StepResult, error) {
	base, err := scenario.Base()
	if err != nil {
		return nil, err
	}

	results := make([]StepResult, 0, len(scenario.Steps))
	for i, step := range scenario.Steps {
		r.Logger.Info("Running scenario step",
			zap.String("scenario", scenario.Name),
			zap.Int("step", i+1),
			zap.Int("of", len(scenario.Steps)),
			zap.String("name", step.Name))

		cfg, err := applyStep(base, step)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp, err := experiment.New(cfg, r.Registry, experiment.WithLogger(r.Logger))
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{Step: step, Result: result})
	}

	return results, nil
}

func applyStep(base *config.Config, step ScenarioStep) (*config.Config, error) {
	cfg := base.Clone()
	if step.Solver != "" {
		cfg.Solver = step.Solver
	}
	if step.Integrator != "" {
		cfg.Integrator = step.Integrator
	}
	for name, v := range step.Params {
		if err := cfg.SetParam(name, v); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// ParameterSweep runs simulations across a range of parameter values
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue   float64
	Initial      float64
	Final        float64
	Growth       float64
	PeakBunching float64
	Steps        int
	Elapsed      time.Duration
}

// Values returns the parameter values of the sweep, endpoints included.
func (s *ParameterSweep) Values() []float64 {
	if s.NumSteps == 1 {
		return []float64{s.ParamMin}
	}
	values := make([]float64, s.NumSteps)
	paramStep := (s.ParamMax - s.ParamMin) / float64(s.NumSteps-1)
	for i := range values {
		values[i] = s.ParamMin + float64(i)*paramStep
	}
	return values
}

// RunSweep executes a parameter sweep. Results are ordered by parameter
// value regardless of completion order; the first failure cancels the rest.
func (r *Runner) RunSweep(ctx context.Context, sweep *ParameterSweep) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("%w: sweep needs at least one step, got %d", dynamo.ErrDomain, sweep.NumSteps)
	}
	if err := sweep.Base.Clone().SetParam(sweep.ParamName, sweep.ParamMin); err != nil {
		return nil, err
	}

	values := sweep.Values()
	results := make([]SweepResult, len(values))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Workers)

	for i, v := range values {
		g.Go(func() error {
			cfg := sweep.Base.Clone()
			if err := cfg.SetParam(sweep.ParamName, v); err != nil {
				return err
			}

			exp, err := experiment.New(cfg, r.Registry)
			if err != nil {
				return fmt.Errorf("%s=%g: %w", sweep.ParamName, v, err)
			}
			result, err := exp.Run(gctx)
			if err != nil {
				return fmt.Errorf("%s=%g: %w", sweep.ParamName, v, err)
			}

			rep := result.Report
			results[i] = SweepResult{
				ParamValue:   v,
				Initial:      rep.Initial,
				Final:        rep.Final,
				Growth:       rep.Growth,
				PeakBunching: rep.PeakBunching,
				Steps:        result.Trajectory.Steps,
				Elapsed:      result.Elapsed,
			}

			r.Logger.Info("Sweep point complete",
				zap.String("param", sweep.ParamName),
				zap.Float64("value", v),
				zap.Float64("growth", rep.Growth))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// MonteCarloConfig repeats one configuration with consecutive seeds to
// measure the shot-noise spread of the results.
type MonteCarloConfig struct {
	Base      *config.Config
	NumTrials int
	SeedStart int64
}

// MonteCarloResult holds one trial
type MonteCarloResult struct {
	TrialID      int
	Seed         int64
	Growth       float64
	PeakBunching float64
	Stable       bool // every particle stayed within the stability bound
}

// RunMonteCarlo executes the trials concurrently.
func (r *Runner) RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig) ([]MonteCarloResult, error) {
	if mc.NumTrials < 1 {
		return nil, fmt.Errorf("%w: need at least one trial, got %d", dynamo.ErrDomain, mc.NumTrials)
	}

	seedStart := mc.SeedStart
	if seedStart == 0 {
		seedStart = time.Now().UnixNano()
	}

	results := make([]MonteCarloResult, mc.NumTrials)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Workers)

	for trial := 0; trial < mc.NumTrials; trial++ {
		g.Go(func() error {
			cfg := mc.Base.Clone()
			cfg.Seed = seedStart + int64(trial)

			exp, err := experiment.New(cfg, r.Registry)
			if err != nil {
				return err
			}
			result, err := exp.Run(gctx)
			if err != nil {
				return fmt.Errorf("trial %d: %w", trial, err)
			}

			results[trial] = MonteCarloResult{
				TrialID:      trial,
				Seed:         cfg.Seed,
				Growth:       result.Report.Growth,
				PeakBunching: result.Report.PeakBunching,
				Stable:       result.Trajectory.Metrics["stability"] == 1,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	r.Logger.Info("Monte Carlo complete", zap.Int("trials", mc.NumTrials))
	return results, nil
}

// MonteCarloStats computes the mean and standard deviation of the spread
// growth together with the stability counts.
func MonteCarloStats(results []MonteCarloResult) (mean, std float64, stableCount, unstableCount int) {
	growth := make([]float64, 0, len(results))
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
		if !math.IsNaN(r.Growth) {
			growth = append(growth, r.Growth)
		}
	}
	if len(growth) == 0 {
		return math.NaN(), math.NaN(), stableCount, unstableCount
	}
	mean, std = stat.PopMeanStdDev(growth, nil)
	return mean, std, stableCount, unstableCount
}

// ParameterSweeps converts the scenario's sweep specs against its base configuration.
func (s *Scenario) ParameterSweeps() ([]*ParameterSweep, error) {
	base, err := s.Base()
	if err != nil {
		return nil, err
	}
	sweeps := make([]*ParameterSweep, len(s.Sweeps))
	for i, spec := range s.Sweeps {
		sweeps[i] = &ParameterSweep{
			Base:      base,
			ParamName: spec.Param,
			ParamMin:  spec.Min,
			ParamMax:  spec.Max,
			NumSteps:  spec.Steps,
		}
	}
	return sweeps, nil
}
