package metrics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/lscsim/internal/dynamo"
)

func ensemble(pos, eta []float64) *dynamo.Ensemble {
	return &dynamo.Ensemble{Pos: pos, Eta: eta}
}

func TestMeanEnergy(t *testing.T) {
	m := NewMeanEnergy()

	m.Observe(0, ensemble([]float64{0, 1}, []float64{1, 3}))
	m.Observe(1, ensemble([]float64{0, 1}, []float64{-1, -1}))

	if got := m.Value(); math.Abs(got-0.5) > 1e-15 {
		t.Errorf("expected mean 0.5, got %f", got)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestSpreadGrowth(t *testing.T) {
	m := NewSpreadGrowth()

	m.Observe(0, ensemble([]float64{0, 0}, []float64{-1, 1}))
	m.Observe(1, ensemble([]float64{0, 0}, []float64{-3, 3}))
	m.Observe(2, ensemble([]float64{0, 0}, []float64{-2, 2}))

	if got := m.Value(); math.Abs(got-2) > 1e-12 {
		t.Errorf("growth = %v, want 2", got)
	}
	if got := m.Max(); math.Abs(got-3) > 1e-12 {
		t.Errorf("max growth = %v, want 3", got)
	}

	m.Reset()
	if m.Value() != 0 || m.Max() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestStability(t *testing.T) {
	m := NewStability(1.0)
	m.Observe(0, ensemble([]float64{0}, []float64{0.5}))
	m.Observe(1, ensemble([]float64{0}, []float64{-2}))

	if got := m.Value(); got != 0.5 {
		t.Errorf("stability = %v, want 0.5", got)
	}
	if got := m.Peak(); got != 2 {
		t.Errorf("peak = %v, want 2", got)
	}

	m.Observe(2, ensemble([]float64{0}, []float64{math.NaN()}))
	if got := m.Value(); math.Abs(got-1.0/3) > 1e-12 {
		t.Errorf("stability with NaN = %v, want 1/3", got)
	}

	m.Reset()
	if m.Value() != 1 || m.Peak() != 0 {
		t.Error("expected a clean slate after reset")
	}
}

func TestPeakBunching(t *testing.T) {
	m := NewPeakBunching(1.0)

	m.Observe(0, ensemble([]float64{0, 0.25, 0.5, 0.75}, make([]float64, 4)))
	if m.Value() > 1e-12 {
		t.Errorf("uniform beam bunching %e", m.Value())
	}

	m.Observe(0.3, ensemble([]float64{0.1, 0.1, 0.1, 0.1}, make([]float64, 4)))
	if math.Abs(m.Value()-1) > 1e-12 || m.Z() != 0.3 {
		t.Errorf("peak %v at %v, want 1 at 0.3", m.Value(), m.Z())
	}
}

type constSolver struct {
	value float64
	err   error
}

func (c constSolver) Solve(pos, out []float64) error {
	for i := range out {
		out[i] = c.value
	}
	return c.err
}

func TestFieldRMS(t *testing.T) {
	m := NewFieldRMS(constSolver{value: -3})
	m.Observe(0, ensemble([]float64{0, 1}, []float64{0, 0}))
	if got := m.Value(); got != 3 {
		t.Errorf("rms = %v, want 3", got)
	}

	failing := NewFieldRMS(constSolver{err: errors.New("boom")})
	failing.Observe(0, ensemble([]float64{0}, []float64{0}))
	if !math.IsNaN(failing.Value()) {
		t.Errorf("failed solve should give NaN, got %v", failing.Value())
	}
	failing.Reset()
	if failing.Value() != 0 {
		t.Error("reset did not clear the failure")
	}
}
