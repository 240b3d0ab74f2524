package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/san-kum/lscsim/internal/config"
	"github.com/san-kum/lscsim/internal/dynamo"
	"github.com/san-kum/lscsim/internal/experiment"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func smallBase() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Beam.Particles = 128
	cfg.Drift.Length = 0.02
	cfg.Drift.EvalPoints = 3
	return cfg
}

func newRunner() *Runner {
	return NewRunner(experiment.NewRegistry(), zap.NewNop(), 3)
}

const scenarioYAML = `
name: compression-scan
description: two compressions and one sweep
preset: hghg
steps:
  - name: weak
    params:
      laser.compression: 0.3
      beam.particles: 128
      drift.length: 0.02
      drift.eval_points: 3
  - name: strong-grid
    solver: grid
    params:
      laser.compression: 0.9
      beam.particles: 128
      drift.length: 0.02
      drift.eval_points: 3
    save_as: strong
sweeps:
  - param: laser.modulation
    min: 1
    max: 3
    steps: 3
`

func TestLoadAndRunScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(scenarioYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	scenario, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	if scenario.Name != "compression-scan" || len(scenario.Steps) != 2 || len(scenario.Sweeps) != 1 {
		t.Fatalf("unexpected scenario: %+v", scenario)
	}

	results, err := newRunner().RunScenario(context.Background(), scenario)
	if err != nil {
		t.Fatalf("RunScenario: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Result.Config.Laser.Compression != 0.3 {
		t.Errorf("step override not applied: %v", results[0].Result.Config.Laser.Compression)
	}
	if results[1].Result.Solver != "grid" || results[1].Step.SaveAs != "strong" {
		t.Errorf("second step: solver %s save_as %q", results[1].Result.Solver, results[1].Step.SaveAs)
	}

	sweeps, err := scenario.ParameterSweeps()
	if err != nil {
		t.Fatal(err)
	}
	if got := sweeps[0].Values(); len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("sweep values %v", got)
	}
}

func TestScenarioUnknownPresetAndParam(t *testing.T) {
	if _, err := (&Scenario{Preset: "nope"}).Base(); !errors.Is(err, dynamo.ErrDomain) {
		t.Errorf("unknown preset: err = %v", err)
	}

	sc := &Scenario{Steps: []ScenarioStep{{Params: map[string]float64{"beam.colour": 1}}}}
	if _, err := newRunner().RunScenario(context.Background(), sc); !errors.Is(err, dynamo.ErrDomain) {
		t.Errorf("unknown param: err = %v", err)
	}
}

func TestRunSweepOrdersResults(t *testing.T) {
	sweep := &ParameterSweep{
		Base:      smallBase(),
		ParamName: "laser.compression",
		ParamMin:  0.2,
		ParamMax:  1.0,
		NumSteps:  5,
	}

	results, err := newRunner().RunSweep(context.Background(), sweep)
	if err != nil {
		t.Fatalf("RunSweep: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("got %d results", len(results))
	}
	for i, r := range results {
		want := sweep.Values()[i]
		if r.ParamValue != want {
			t.Errorf("result %d has value %v, want %v", i, r.ParamValue, want)
		}
		if r.Steps == 0 {
			t.Errorf("result %d took no steps", i)
		}
	}
}

func TestRunSweepFailureCancels(t *testing.T) {
	sweep := &ParameterSweep{
		Base:      smallBase(),
		ParamName: "beam.particles",
		ParamMin:  -1,
		ParamMax:  64,
		NumSteps:  4,
	}
	if _, err := newRunner().RunSweep(context.Background(), sweep); !errors.Is(err, dynamo.ErrDomain) {
		t.Errorf("err = %v, want ErrDomain from the invalid point", err)
	}

	bad := &ParameterSweep{Base: smallBase(), ParamName: "nope", NumSteps: 2}
	if _, err := newRunner().RunSweep(context.Background(), bad); !errors.Is(err, dynamo.ErrDomain) {
		t.Errorf("unknown param: err = %v", err)
	}
}

func TestRunSweepCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sweep := &ParameterSweep{Base: smallBase(), ParamName: "laser.compression", ParamMin: 0.2, ParamMax: 0.4, NumSteps: 3}
	if _, err := newRunner().RunSweep(ctx, sweep); !errors.Is(err, dynamo.ErrCanceled) {
		t.Errorf("err = %v, want ErrCanceled", err)
	}
}

func TestRunMonteCarlo(t *testing.T) {
	mc := &MonteCarloConfig{Base: smallBase(), NumTrials: 4, SeedStart: 100}

	results, err := newRunner().RunMonteCarlo(context.Background(), mc)
	if err != nil {
		t.Fatalf("RunMonteCarlo: %v", err)
	}
	for i, r := range results {
		if r.TrialID != i || r.Seed != 100+int64(i) {
			t.Errorf("trial %d: id %d seed %d", i, r.TrialID, r.Seed)
		}
	}

	mean, std, stable, unstable := MonteCarloStats(results)
	if stable+unstable != 4 {
		t.Errorf("counts %d+%d", stable, unstable)
	}
	if mean <= 0 || std < 0 {
		t.Errorf("growth stats mean=%v std=%v", mean, std)
	}
}
