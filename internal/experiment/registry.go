package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/lscsim/internal/config"
	"github.com/san-kum/lscsim/internal/dynamo"
	"github.com/san-kum/lscsim/internal/field"
	"github.com/san-kum/lscsim/internal/integrators"
	"github.com/san-kum/lscsim/internal/metrics"
	"github.com/san-kum/lscsim/internal/physics"
)

type SolverFactory func(p *physics.Params, cfg *config.Config) (field.Solver, error)

type Registry struct {
	solvers     map[string]SolverFactory
	integrators map[string]func() dynamo.Engine
}

func NewRegistry() *Registry {
	r := &Registry{
		solvers:     make(map[string]SolverFactory),
		integrators: make(map[string]func() dynamo.Engine),
	}

	r.solvers[config.SolverHarmonic] = func(p *physics.Params, cfg *config.Config) (field.Solver, error) {
		return field.NewHarmonic(p, cfg.Field.Harmonics, field.WithParallel(cfg.Field.Parallel))
	}
	r.solvers[config.SolverGrid] = func(p *physics.Params, cfg *config.Config) (field.Solver, error) {
		interp, err := field.ParseInterpolation(cfg.Field.Interpolation)
		if err != nil {
			return nil, err
		}
		return field.NewGrid(p, cfg.Field.GridPoints,
			field.WithParallel(cfg.Field.Parallel),
			field.WithInterpolation(interp))
	}

	r.integrators["rk45"] = func() dynamo.Engine { return integrators.NewRK45() }
	r.integrators["rk4"] = func() dynamo.Engine { return integrators.NewFixedStep(integrators.NewRK4()) }
	r.integrators["euler"] = func() dynamo.Engine { return integrators.NewFixedStep(integrators.NewEuler()) }
	r.integrators["leapfrog"] = func() dynamo.Engine { return integrators.NewFixedStep(integrators.NewLeapfrog()) }

	return r
}

// RegisterSolver adds or replaces a field solver.
func (r *Registry) RegisterSolver(name string, fn SolverFactory) {
	r.solvers[name] = fn
}

func (r *Registry) GetSolver(name string, p *physics.Params, cfg *config.Config) (field.Solver, error) {
	fn, ok := r.solvers[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown solver: %s", dynamo.ErrDomain, name)
	}
	return fn(p, cfg)
}

func (r *Registry) GetIntegrator(name string) (dynamo.Engine, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown integrator: %s", dynamo.ErrDomain, name)
	}
	return fn(), nil
}

func (r *Registry) ListSolvers() []string {
	return sortedKeys(r.solvers)
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics are attached to every run. Fresh instances are returned on
// each call.
func (r *Registry) DefaultMetrics(p *physics.Params, solver field.Solver) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewSpreadGrowth(),
		metrics.NewMeanEnergy(),
		metrics.NewPeakBunching(p.Period()),
		metrics.NewFieldRMS(solver),
		metrics.NewStability(10 * (p.SigmaEta + p.Modulation)),
	}
}
