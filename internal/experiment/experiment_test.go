package experiment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/lscsim/internal/config"
	"github.com/san-kum/lscsim/internal/dynamo"
)

func smallConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Beam.Particles = 256
	cfg.Drift.Length = 0.05
	cfg.Drift.EvalPoints = 3
	cfg.Seed = 42
	return cfg
}

type countObserver struct{ n int }

func (c *countObserver) OnSnapshot(i int, z float64, e *dynamo.Ensemble) { c.n++ }

func TestExperimentRun(t *testing.T) {
	obs := &countObserver{}
	exp, err := New(smallConfig(), NewRegistry(), WithObservers(obs))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Trajectory.Len() != 3 || len(res.Spread) != 3 {
		t.Fatalf("got %d snapshots and %d spread values, want 3", res.Trajectory.Len(), len(res.Spread))
	}
	if res.Solver != "harmonic" || res.Engine != "rk45" || res.Seed != 42 {
		t.Errorf("unexpected result header: %s/%s seed %d", res.Solver, res.Engine, res.Seed)
	}
	if obs.n != 3 {
		t.Errorf("observer saw %d snapshots, want 3", obs.n)
	}
	for _, name := range []string{"spread_growth", "mean_eta", "peak_bunching", "field_rms", "stability"} {
		if _, ok := res.Trajectory.Metrics[name]; !ok {
			t.Errorf("metric %q missing", name)
		}
	}
}

func TestExperimentIsReproducible(t *testing.T) {
	run := func() []dynamo.State {
		exp, err := New(smallConfig(), NewRegistry())
		if err != nil {
			t.Fatal(err)
		}
		res, err := exp.Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		return res.Trajectory.States
	}

	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Errorf("same seed gave different trajectories (-first +second):\n%s", diff)
	}
}

func TestExperimentInitialIsStable(t *testing.T) {
	exp, err := New(smallConfig(), NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(exp.Initial(), exp.Initial()); diff != "" {
		t.Errorf("Initial differs between calls:\n%s", diff)
	}
}

func TestExperimentSeedFromClock(t *testing.T) {
	cfg := smallConfig()
	cfg.Seed = 0
	exp, err := New(cfg, NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	if exp.Seed() == 0 {
		t.Error("zero seed was not replaced")
	}
}

func TestExperimentGridSolver(t *testing.T) {
	cfg := smallConfig()
	cfg.Solver = config.SolverGrid
	cfg.Field.GridPoints = 64
	cfg.Integrator = "rk4"
	cfg.Drift.Step = 0.005

	exp, err := New(cfg, NewRegistry())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Trajectory.Coord != dynamo.Position {
		t.Errorf("grid run in %s coordinates", res.Trajectory.Coord)
	}
	if res.Trajectory.Steps != 10 {
		t.Errorf("fixed-step run took %d steps, want 10", res.Trajectory.Steps)
	}
}

func TestExperimentStreaming(t *testing.T) {
	exp, err := New(smallConfig(), NewRegistry())
	if err != nil {
		t.Fatal(err)
	}

	var zs []float64
	res, err := exp.RunWithCallback(context.Background(), func(i int, z float64, e *dynamo.Ensemble) bool {
		zs = append(zs, z)
		return true
	})
	if err != nil {
		t.Fatalf("RunWithCallback: %v", err)
	}
	if len(zs) != 3 || res.Report == nil {
		t.Errorf("streamed %v, report %v", zs, res.Report)
	}
}

func TestExperimentInvalid(t *testing.T) {
	cfg := smallConfig()
	cfg.Beam.Particles = 0
	if _, err := New(cfg, NewRegistry()); !errors.Is(err, dynamo.ErrDomain) {
		t.Errorf("err = %v, want ErrDomain", err)
	}

	reg := NewRegistry()
	if _, err := reg.GetSolver("spectral", nil, smallConfig()); !errors.Is(err, dynamo.ErrDomain) {
		t.Errorf("unknown solver: err = %v", err)
	}
	if _, err := reg.GetIntegrator("verlet"); !errors.Is(err, dynamo.ErrDomain) {
		t.Errorf("unknown integrator: err = %v", err)
	}
}

func TestRegistryLists(t *testing.T) {
	reg := NewRegistry()
	if diff := cmp.Diff([]string{"grid", "harmonic"}, reg.ListSolvers()); diff != "" {
		t.Errorf("solvers (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"euler", "leapfrog", "rk4", "rk45"}, reg.ListIntegrators()); diff != "" {
		t.Errorf("integrators (-want +got):\n%s", diff)
	}
}
