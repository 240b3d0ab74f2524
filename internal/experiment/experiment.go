package experiment

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/lscsim/internal/analysis"
	"github.com/san-kum/lscsim/internal/config"
	"github.com/san-kum/lscsim/internal/dynamo"
	"github.com/san-kum/lscsim/internal/field"
	"github.com/san-kum/lscsim/internal/physics"
	"github.com/san-kum/lscsim/internal/sim"
)

// Experiment wires one configuration into a ready-to-run drift.
type Experiment struct {
	cfg       *config.Config
	params    *physics.Params
	solver    field.Solver
	engine    dynamo.Engine
	system    *physics.LSC
	simulator *sim.Simulator
	seed      int64
	logger    *zap.Logger
	observers []dynamo.Observer
}

type Option func(*Experiment)

func WithLogger(l *zap.Logger) Option {
	return func(e *Experiment) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithObservers(obs ...dynamo.Observer) Option {
	return func(e *Experiment) { e.observers = append(e.observers, obs...) }
}

// Result is a finished run together with the inputs that produced it.
type Result struct {
	Config     *config.Config
	Params     *physics.Params
	Solver     string
	Engine     string
	Seed       int64
	Trajectory *dynamo.Trajectory
	Spread     []float64
	Report     *analysis.Report
	Elapsed    time.Duration
}

// New validates cfg and builds the solver, vector field and engine. A zero
// seed draws one from the clock; the seed actually used is kept in the
// Result.
func New(cfg *config.Config, reg *Registry, opts ...Option) (*Experiment, error) {
	params, err := physics.NewParams(cfg)
	if err != nil {
		return nil, err
	}

	e := &Experiment{
		cfg:    cfg.Clone(),
		params: params,
		seed:   cfg.Seed,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.seed == 0 {
		e.seed = time.Now().UnixNano()
	}

	e.solver, err = reg.GetSolver(cfg.Solver, params, cfg)
	if err != nil {
		return nil, err
	}
	e.engine, err = reg.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	e.system = physics.NewLSC(params, e.solver)

	e.simulator = sim.New(e.system, e.engine,
		sim.WithLogger(e.logger),
		sim.WithMetrics(reg.DefaultMetrics(params, e.solver)...),
		sim.WithObservers(e.observers...))

	e.logger.Debug("Experiment configured",
		zap.String("solver", e.solver.Name()),
		zap.String("engine", e.engine.Name()),
		zap.Int64("seed", e.seed),
		zap.Stringer("params", params))

	return e, nil
}

func (e *Experiment) Config() *config.Config  { return e.cfg }
func (e *Experiment) Params() *physics.Params { return e.params }
func (e *Experiment) Solver() field.Solver    { return e.solver }
func (e *Experiment) Seed() int64             { return e.seed }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

// Initial draws the initial ensemble. Every call with the same seed returns
// the same ensemble.
func (e *Experiment) Initial() *dynamo.Ensemble {
	rng := rand.New(rand.NewSource(e.seed))
	quiet := e.cfg.Loading == config.LoadingQuiet
	return physics.NewInitializer(e.params, rng, quiet).Generate()
}

// SimConfig translates the drift section of the configuration.
func (e *Experiment) SimConfig() sim.Config {
	d := e.cfg.Drift
	return sim.Config{
		Length:     d.Length,
		EvalPoints: d.EvalPoints,
		Options: dynamo.Options{
			RTol:     d.RTol,
			ATol:     d.ATol,
			MaxStep:  d.MaxStep,
			Step:     d.Step,
			MaxSteps: d.MaxSteps,
		},
	}
}

func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	traj, err := e.simulator.Run(ctx, e.Initial(), e.SimConfig())
	if err != nil {
		return nil, err
	}
	return e.result(traj, time.Since(start))
}

// RunWithCallback streams snapshots to fn as they are computed.
func (e *Experiment) RunWithCallback(ctx context.Context, fn func(i int, z float64, ens *dynamo.Ensemble) bool) (*Result, error) {
	start := time.Now()
	traj, err := e.simulator.RunWithCallback(ctx, e.Initial(), e.SimConfig(), fn)
	if err != nil {
		return nil, err
	}
	return e.result(traj, time.Since(start))
}

func (e *Experiment) result(traj *dynamo.Trajectory, elapsed time.Duration) (*Result, error) {
	report, err := analysis.NewReport(traj, e.params.SigmaEta)
	if err != nil {
		return nil, err
	}
	return &Result{
		Config:     e.cfg,
		Params:     e.params,
		Solver:     e.solver.Name(),
		Engine:     e.engine.Name(),
		Seed:       e.seed,
		Trajectory: traj,
		Spread:     report.Spread,
		Report:     report,
		Elapsed:    elapsed,
	}, nil
}
