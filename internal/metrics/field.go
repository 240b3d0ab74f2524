package metrics

import (
	"math"

	"github.com/san-kum/lscsim/internal/dynamo"
)

// Solver computes the field at each position.
type Solver interface {
	Solve(pos, out []float64) error
}

// FieldRMS is the largest per-snapshot RMS field (V/m) at the particles.
// A failed solve makes the value NaN.
type FieldRMS struct {
	name   string
	solver Solver
	peak   float64
	failed bool
	buf    []float64
}

func NewFieldRMS(solver Solver) *FieldRMS {
	return &FieldRMS{name: "field_rms", solver: solver}
}

func (f *FieldRMS) Name() string { return f.name }

func (f *FieldRMS) Observe(z float64, ens *dynamo.Ensemble) {
	n := ens.Len()
	if n == 0 {
		return
	}
	if len(f.buf) != n {
		f.buf = make([]float64, n)
	}
	if err := f.solver.Solve(ens.Pos, f.buf); err != nil {
		f.failed = true
		return
	}

	ss := 0.0
	for _, e := range f.buf {
		ss += e * e
	}
	f.peak = math.Max(f.peak, math.Sqrt(ss/float64(n)))
}

func (f *FieldRMS) Value() float64 {
	if f.failed {
		return math.NaN()
	}
	return f.peak
}

func (f *FieldRMS) Reset() {
	f.peak = 0
	f.failed = false
}

var (
	_ dynamo.Metric = (*MeanEnergy)(nil)
	_ dynamo.Metric = (*SpreadGrowth)(nil)
	_ dynamo.Metric = (*Stability)(nil)
	_ dynamo.Metric = (*PeakBunching)(nil)
	_ dynamo.Metric = (*FieldRMS)(nil)
)
