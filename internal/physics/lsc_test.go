package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/lscsim/internal/dynamo"
)

type constantField struct {
	value float64
	calls int
	seen  []float64
}

func (c *constantField) Solve(pos, out []float64) error {
	c.calls++
	c.seen = append(c.seen[:0], pos...)
	for i := range out {
		out[i] = c.value
	}
	return nil
}

type failingField struct{}

func (failingField) Solve(pos, out []float64) error {
	return dynamo.ErrNumericAnomaly
}

// sineBunch is the field of a density peak at π: E = E0·sin θ.
type sineBunch struct{ e0 float64 }

func (s sineBunch) Solve(pos, out []float64) error {
	for i, p := range pos {
		out[i] = s.e0 * math.Sin(p)
	}
	return nil
}

func TestLSC_Derive(t *testing.T) {
	p := testParams(t, 3, dynamo.Position)
	solver := &constantField{value: 1e5}
	sys := NewLSC(p, solver)

	ens := &dynamo.Ensemble{
		Pos: []float64{0, 2 * p.Wavelength, -p.Wavelength / 3},
		Eta: []float64{1e-4, 0, -2e-4},
	}
	x := ens.State()

	dx, err := sys.Derive(0.3, x)
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if want := p.KDrift * ens.Eta[i]; dx[i] != want {
			t.Errorf("dpos[%d] = %g, want %g", i, dx[i], want)
		}
		if want := p.KEta * 1e5; dx[3+i] != want {
			t.Errorf("deta[%d] = %g, want %g", i, dx[3+i], want)
		}
	}

	// Positions reach the solver unwrapped and the state is untouched.
	for i, v := range ens.Pos {
		if solver.seen[i] != v || x[i] != v {
			t.Errorf("position %d changed: solver saw %g, state holds %g, want %g", i, solver.seen[i], x[i], v)
		}
	}
}

func TestLSC_Stateless(t *testing.T) {
	p := testParams(t, 2, dynamo.Phase)
	sys := NewLSC(p, sineBunch{e0: 2e5})
	x := dynamo.State{0.5, 4.0, 1e-4, -1e-4}

	a, _ := sys.Derive(0, x)
	_, _ = sys.Derive(7, dynamo.State{1, 2, 3, 4})
	b, _ := sys.Derive(0, x)

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("derivative %d changed between identical calls: %g vs %g", i, a[i], b[i])
		}
	}
}

func TestLSC_EnergyGainAheadOfPeak(t *testing.T) {
	// With b_1 < 0 the density peaks at θ = π and E = C|b_1| sin θ. An
	// electron just ahead of the peak is pushed forward and gains energy.
	p := testParams(t, 2, dynamo.Phase)
	sys := NewLSC(p, sineBunch{e0: 1e5})

	dx, err := sys.Derive(0, dynamo.State{math.Pi + 0.3, math.Pi - 0.3, 0, 0})
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	if dx[2] <= 0 {
		t.Errorf("particle ahead of the peak should gain energy, got dη/dz = %g", dx[2])
	}
	if dx[3] >= 0 {
		t.Errorf("particle behind the peak should lose energy, got dη/dz = %g", dx[3])
	}
}

func TestLSC_Errors(t *testing.T) {
	p := testParams(t, 2, dynamo.Phase)

	sys := NewLSC(p, &constantField{})
	if _, err := sys.Derive(0, dynamo.State{1, 2, 3}); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}

	sys = NewLSC(p, failingField{})
	if _, err := sys.Derive(0, dynamo.State{1, 2, 3, 4}); !errors.Is(err, dynamo.ErrNumericAnomaly) {
		t.Errorf("expected ErrNumericAnomaly, got %v", err)
	}
}
