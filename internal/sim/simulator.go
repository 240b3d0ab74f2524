package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/lscsim/internal/dynamo"
)

type Simulator struct {
	sys       dynamo.System
	engine    dynamo.Engine
	coord     dynamo.Coordinate
	period    float64
	metrics   []dynamo.Metric
	observers []dynamo.Observer
	logger    *zap.Logger
}

func New(sys dynamo.System, engine dynamo.Engine, opts ...Option) *Simulator {
	s := &Simulator{
		sys:    sys,
		engine: engine,
		coord:  dynamo.Phase,
		period: 2 * math.Pi,
		logger: zap.NewNop(),
	}
	if p, ok := sys.(Periodic); ok {
		s.coord, s.period = p.Coordinate(), p.Period()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// EvalPoints returns the snapshot positions of cfg.
func EvalPoints(cfg Config) []float64 {
	z := make([]float64, cfg.EvalPoints)
	floats.Span(z, 0, cfg.Length)
	z[len(z)-1] = cfg.Length
	return z
}

// Run integrates the ensemble over the whole drift in a single engine call.
// The caller's ensemble is never modified.
func (s *Simulator) Run(ctx context.Context, ens *dynamo.Ensemble, cfg Config) (*dynamo.Trajectory, error) {
	if err := s.check(ens, cfg); err != nil {
		return nil, err
	}

	zEval := EvalPoints(cfg)
	s.logger.Info("Starting drift",
		zap.String("engine", s.engine.Name()),
		zap.Int("particles", ens.Len()),
		zap.Float64("length", cfg.Length),
		zap.Int("snapshots", len(zEval)))

	start := time.Now()
	sol, err := s.engine.Solve(ctx, s.sys, [2]float64{0, cfg.Length}, ens.State(), zEval, cfg.Options)
	if err != nil {
		return nil, s.fail(err, 0, 0)
	}
	if !sol.Success {
		z := 0.0
		if len(sol.Z) > 0 {
			z = sol.Z[len(sol.Z)-1]
		}
		return nil, s.fail(&dynamo.SimulationError{
			Step:    sol.Steps,
			Z:       z,
			Message: sol.Message,
			Wrapped: divergence(sol),
		}, sol.Steps, z)
	}

	traj := s.newTrajectory(len(zEval))
	traj.Steps, traj.Rejected, traj.Evaluations = sol.Steps, sol.Rejected, sol.Evaluations

	for _, m := range s.metrics {
		m.Reset()
	}
	for i := range sol.Z {
		if err := s.append(traj, sol.Z[i], sol.Y[i]); err != nil {
			return nil, s.fail(err, sol.Steps, sol.Z[i])
		}
	}
	s.finish(traj)

	s.logger.Info("Drift complete",
		zap.Int("steps", sol.Steps),
		zap.Int("rejected", sol.Rejected),
		zap.Int("evaluations", sol.Evaluations),
		zap.Duration("elapsed", time.Since(start)))

	return traj, nil
}

// RunWithCallback integrates snapshot to snapshot and hands every snapshot
// to callback as soon as it is available. Returning false stops the drift
// early and the partial trajectory is returned.
func (s *Simulator) RunWithCallback(ctx context.Context, ens *dynamo.Ensemble, cfg Config, callback func(i int, z float64, e *dynamo.Ensemble) bool) (*dynamo.Trajectory, error) {
	if err := s.check(ens, cfg); err != nil {
		return nil, err
	}

	zEval := EvalPoints(cfg)
	traj := s.newTrajectory(len(zEval))
	for _, m := range s.metrics {
		m.Reset()
	}

	y := ens.State()
	if err := s.append(traj, zEval[0], y); err != nil {
		return nil, err
	}
	if !callback(0, zEval[0], traj.Wrapped(0)) {
		s.finish(traj)
		return traj, nil
	}

	for i := 1; i < len(zEval); i++ {
		span := [2]float64{zEval[i-1], zEval[i]}
		sol, err := s.engine.Solve(ctx, s.sys, span, y, []float64{zEval[i]}, cfg.Options)
		if err != nil {
			return nil, s.fail(err, traj.Steps, span[0])
		}
		traj.Steps += sol.Steps
		traj.Rejected += sol.Rejected
		traj.Evaluations += sol.Evaluations
		if !sol.Success {
			return nil, s.fail(&dynamo.SimulationError{
				Step:    traj.Steps,
				Z:       span[0],
				Message: sol.Message,
				Wrapped: divergence(sol),
			}, traj.Steps, span[0])
		}

		y = sol.Y[0]
		if err := s.append(traj, zEval[i], y); err != nil {
			return nil, s.fail(err, traj.Steps, zEval[i])
		}
		if !callback(i, zEval[i], traj.Wrapped(i)) {
			break
		}
	}

	s.finish(traj)
	return traj, nil
}

func (s *Simulator) check(ens *dynamo.Ensemble, cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	if ens == nil || 2*ens.Len() != s.sys.Dim() || len(ens.Eta) != len(ens.Pos) {
		return dynamo.ErrDimensionMismatch
	}
	return nil
}

func (s *Simulator) newTrajectory(n int) *dynamo.Trajectory {
	return &dynamo.Trajectory{
		Z:       make([]float64, 0, n),
		States:  make([]dynamo.State, 0, n),
		Coord:   s.coord,
		Period:  s.period,
		Metrics: make(map[string]float64),
	}
}

func (s *Simulator) append(traj *dynamo.Trajectory, z float64, y dynamo.State) error {
	if !y.IsValid() {
		return &dynamo.SimulationError{Step: traj.Steps, Z: z, Message: "non-finite particle state", Wrapped: dynamo.ErrNumericAnomaly}
	}
	traj.Z = append(traj.Z, z)
	traj.States = append(traj.States, y)

	i := traj.Len() - 1
	wrapped := traj.Wrapped(i)
	for _, m := range s.metrics {
		m.Observe(z, wrapped)
	}
	for _, obs := range s.observers {
		obs.OnSnapshot(i, z, wrapped)
	}
	return nil
}

func (s *Simulator) finish(traj *dynamo.Trajectory) {
	for _, m := range s.metrics {
		traj.Metrics[m.Name()] = m.Value()
	}
}

func (s *Simulator) fail(err error, steps int, z float64) error {
	if errors.Is(err, dynamo.ErrCanceled) {
		s.logger.Warn("Drift canceled", zap.Float64("z", z))
		return err
	}
	var simErr *dynamo.SimulationError
	if !errors.As(err, &simErr) {
		err = &dynamo.SimulationError{Step: steps, Z: z, Message: "derivative evaluation failed", Wrapped: err}
	}
	s.logger.Error("Drift failed", zap.Error(err), zap.Int("steps", steps), zap.Float64("z", z))
	return err
}

func divergence(sol *dynamo.Solution) error {
	if sol.Reason == nil {
		return dynamo.ErrSolverDivergence
	}
	return fmt.Errorf("%w: %w", dynamo.ErrSolverDivergence, sol.Reason)
}
