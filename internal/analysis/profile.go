package analysis

import (
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/lscsim/internal/dynamo"
	"github.com/san-kum/lscsim/internal/field"
)

// LineProfile is the density and field of one snapshot on a uniform grid
// over one period.
type LineProfile struct {
	Index   int
	Z       float64
	Centers []float64
	// Density is normalized to a mean of 1.
	Density []float64
	// Field is the bin average of the particle fields; empty bins hold 0.
	Field []float64
	// ParticleField is index-aligned with the snapshot.
	ParticleField []float64
}

// Profile recomputes the field of snapshot i with solver from the raw
// unwrapped positions and bins density and field on bins cells.
func Profile(traj *dynamo.Trajectory, i int, solver field.Solver, bins int) (*LineProfile, error) {
	if bins <= 0 {
		return nil, fmt.Errorf("%w: bin count must be positive, got %d", dynamo.ErrDomain, bins)
	}
	if traj == nil || i < 0 || i >= traj.Len() {
		return nil, fmt.Errorf("%w: snapshot index %d out of range", dynamo.ErrDomain, i)
	}
	if solver.Coordinate() != traj.Coord {
		return nil, fmt.Errorf("%w: %s solver cannot read a %s trajectory", dynamo.ErrDomain, solver.Name(), traj.Coord)
	}

	ens := traj.Ensemble(i)
	n := ens.Len()
	particleField := make([]float64, n)
	if err := solver.Solve(ens.Pos, particleField); err != nil {
		return nil, err
	}

	period := traj.Period
	width := period / float64(bins)
	p := &LineProfile{
		Index:         i,
		Z:             traj.Z[i],
		Centers:       make([]float64, bins),
		Density:       make([]float64, bins),
		Field:         make([]float64, bins),
		ParticleField: particleField,
	}
	for j := range p.Centers {
		p.Centers[j] = (float64(j) + 0.5) * width
	}

	counts := make([]int, bins)
	for j, pos := range ens.Pos {
		b := int(dynamo.Wrap(pos, period) / width)
		if b >= bins {
			b = bins - 1
		}
		counts[b]++
		p.Field[b] += particleField[j]
	}

	norm := float64(bins) / float64(n)
	for b, c := range counts {
		p.Density[b] = float64(c) * norm
		if c > 0 {
			p.Field[b] /= float64(c)
		}
	}

	return p, nil
}

// PowerSpectrum returns |X_k|²/N² of the mean-subtracted signal for
// k = 0..N/2.
func PowerSpectrum(signal []float64) []float64 {
	n := len(signal)
	if n == 0 {
		return nil
	}

	mean := 0.0
	for _, v := range signal {
		mean += v
	}
	mean /= float64(n)

	centered := make([]float64, n)
	for i, v := range signal {
		centered[i] = v - mean
	}

	spec := fft.FFTReal(centered)
	ps := make([]float64, n/2+1)
	n2 := float64(n) * float64(n)
	for k := range ps {
		re, im := real(spec[k]), imag(spec[k])
		ps[k] = (re*re + im*im) / n2
	}
	return ps
}

// DominantMode returns the index of the largest non-DC entry of ps.
func DominantMode(ps []float64) int {
	best, idx := math.Inf(-1), 0
	for k := 1; k < len(ps); k++ {
		if ps[k] > best {
			best, idx = ps[k], k
		}
	}
	return idx
}
