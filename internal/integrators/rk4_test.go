package integrators

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/lscsim/internal/dynamo"
)

func TestRK4Accuracy(t *testing.T) {
	dyn := &harmonicOscillator{}
	integ := NewRK4()

	x := dynamo.State{1.0, 0.0}
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		var err error
		x, err = integ.Step(dyn, x, float64(i)*dt, dt)
		if err != nil {
			t.Fatalf("Step: %v", err)
		}
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}

	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestFixedStepEngines(t *testing.T) {
	tests := []struct {
		name    string
		stepper Stepper
		tol     float64
	}{
		{"rk4", NewRK4(), 1e-8},
		{"leapfrog", NewLeapfrog(), 1e-4},
		{"euler", NewEuler(), 5e-2},
	}

	zEval := linspace(0, 1, 5)
	opts := dynamo.DefaultOptions()
	opts.Step = 1e-3

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewFixedStep(tt.stepper)
			if engine.Name() != tt.name {
				t.Errorf("Name() = %q", engine.Name())
			}

			sol, err := engine.Solve(context.Background(), &harmonicOscillator{}, [2]float64{0, 1}, dynamo.State{1, 0}, zEval, opts)
			if err != nil {
				t.Fatalf("Solve: %v", err)
			}
			if !sol.Success || len(sol.Y) != len(zEval) {
				t.Fatalf("success=%v snapshots=%d", sol.Success, len(sol.Y))
			}
			for i, z := range sol.Z {
				if z != zEval[i] {
					t.Errorf("snapshot %d at %v, want %v", i, z, zEval[i])
				}
				if d := math.Abs(sol.Y[i][0] - math.Cos(z)); d > tt.tol {
					t.Errorf("x(%.2f) off by %e", z, d)
				}
			}
			if sol.Steps != 1000 {
				t.Errorf("steps = %d, want 1000", sol.Steps)
			}
		})
	}
}

func TestLeapfrogIsSymplectic(t *testing.T) {
	dyn := &harmonicOscillator{}
	integ := NewLeapfrog()
	x := dynamo.State{1, 0}
	e0 := dyn.Energy(x)

	for i := 0; i < 100000; i++ {
		var err error
		x, err = integ.Step(dyn, x, float64(i)*0.05, 0.05)
		if err != nil {
			t.Fatal(err)
		}
	}

	if drift := math.Abs(dyn.Energy(x)-e0) / e0; drift > 2e-3 {
		t.Errorf("leapfrog energy drift %e", drift)
	}
}

func TestFixedStepMaxSteps(t *testing.T) {
	opts := dynamo.Options{Step: 0.01, MaxSteps: 10}
	sol, err := NewFixedStep(NewRK4()).Solve(context.Background(), &harmonicOscillator{}, [2]float64{0, 1}, dynamo.State{1, 0}, nil, opts)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if sol.Success || sol.Steps != 10 {
		t.Errorf("success=%v steps=%d, want failure after 10 steps", sol.Success, sol.Steps)
	}
}
