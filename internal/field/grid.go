package field

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/san-kum/lscsim/internal/dynamo"
	"github.com/san-kum/lscsim/internal/physics"
)

// Interpolation selects how grid values are read back at particle positions.
type Interpolation int

const (
	Linear Interpolation = iota
	Nearest
)

func ParseInterpolation(s string) (Interpolation, error) {
	switch s {
	case "linear", "":
		return Linear, nil
	case "nearest":
		return Nearest, nil
	default:
		return Linear, fmt.Errorf("%w: unknown interpolation %q", dynamo.ErrDomain, s)
	}
}

// imagTolerance bounds the imaginary residual of the inverse transform
// relative to the spectral norm of the field.
const imagTolerance = 1e-9

// Grid solves Gauss's law on N_g uniform bins spanning one wavelength.
type Grid struct {
	points int
	period float64
	ds     float64
	// rhoPerCount converts a bin count to charge density.
	rhoPerCount float64
	k           []float64
	opts        options
}

func NewGrid(p *physics.Params, points int, opts ...Option) (*Grid, error) {
	if points <= 0 {
		return nil, fmt.Errorf("%w: grid size must be positive, got %d", dynamo.ErrDomain, points)
	}
	ds := p.Wavelength / float64(points)
	return &Grid{
		points:      points,
		period:      p.Wavelength,
		ds:          ds,
		rhoPerCount: p.MacroCharge / (ds * p.Area),
		k:           Wavenumbers(points, ds),
		opts:        buildOptions(opts),
	}, nil
}

func (g *Grid) Name() string                  { return "grid" }
func (g *Grid) Coordinate() dynamo.Coordinate { return dynamo.Position }
func (g *Grid) Period() float64               { return g.period }
func (g *Grid) Points() int                   { return g.points }
func (g *Grid) Spacing() float64              { return g.ds }

// Bin maps an unwrapped position to its bin index in [0, N_g-1].
func (g *Grid) Bin(pos float64) int {
	j := int(math.Floor(dynamo.Wrap(pos, g.period) / g.ds))
	if j < 0 {
		return 0
	}
	if j >= g.points {
		return g.points - 1
	}
	return j
}

// Centers returns the position of every bin center.
func (g *Grid) Centers() []float64 {
	c := make([]float64, g.points)
	for j := range c {
		c[j] = (float64(j) + 0.5) * g.ds
	}
	return c
}

// Deposit histograms positions into bins and returns the charge density
// in C/m³ per bin.
func (g *Grid) Deposit(pos []float64) []float64 {
	counts := make([]float64, g.points)

	if g.opts.parallel {
		chunks := dynamo.Chunks(len(pos), g.opts.minChunk)
		partial := make([][]float64, chunks)
		dynamo.ParallelFor(len(pos), g.opts.minChunk, func(c, start, end int) {
			local := make([]float64, g.points)
			for _, p := range pos[start:end] {
				local[g.Bin(p)]++
			}
			partial[c] = local
		})
		for _, local := range partial {
			for j, v := range local {
				counts[j] += v
			}
		}
	} else {
		for _, p := range pos {
			counts[g.Bin(p)]++
		}
	}

	for j := range counts {
		counts[j] *= g.rhoPerCount
	}
	return counts
}

// Spectrum returns the Fourier components of the field for a density
// profile. The k=0 component, and the Nyquist component for even N_g, are
// zero.
func (g *Grid) Spectrum(rho []float64) []complex128 {
	mean := 0.0
	for _, v := range rho {
		mean += v
	}
	mean /= float64(len(rho))

	ac := make([]float64, len(rho))
	for j, v := range rho {
		ac[j] = v - mean
	}

	spec := fft.FFTReal(ac)
	nyquist := -1
	if g.points%2 == 0 {
		nyquist = g.points / 2
	}
	for j := range spec {
		if j == 0 || j == nyquist {
			spec[j] = 0
			continue
		}
		spec[j] = spec[j] / complex(0, g.k[j]*physics.VacuumPermittivity)
	}
	return spec
}

// SolveGrid returns the field at every bin center for a density profile.
func (g *Grid) SolveGrid(rho []float64) ([]float64, error) {
	if len(rho) != g.points {
		return nil, fmt.Errorf("%w: density has %d bins, grid has %d", dynamo.ErrDimensionMismatch, len(rho), g.points)
	}

	spec := g.Spectrum(rho)
	norm := 0.0
	for _, c := range spec {
		norm += cmplx.Abs(c)
	}
	norm /= float64(g.points)

	values := fft.IFFT(spec)
	field := make([]float64, g.points)
	maxImag := 0.0
	for j, v := range values {
		field[j] = real(v)
		maxImag = math.Max(maxImag, math.Abs(imag(v)))
	}

	if maxImag > imagTolerance*norm {
		return nil, fmt.Errorf("%w: imaginary residual %.3g exceeds %.3g", dynamo.ErrNumericAnomaly, maxImag, imagTolerance*norm)
	}
	if err := checkFinite(field); err != nil {
		return nil, err
	}
	return field, nil
}

// Interpolate reads grid values back at (unwrapped) positions.
func (g *Grid) Interpolate(values, pos, out []float64) {
	for i, p := range pos {
		out[i] = g.sample(values, p)
	}
}

func (g *Grid) sample(values []float64, pos float64) float64 {
	if g.opts.interp == Nearest {
		return values[g.Bin(pos)]
	}

	u := dynamo.Wrap(pos, g.period)/g.ds - 0.5
	j0 := int(math.Floor(u))
	frac := u - float64(j0)
	j1 := j0 + 1
	if j0 < 0 {
		j0 += g.points
	}
	if j1 >= g.points {
		j1 -= g.points
	}
	return (1-frac)*values[j0] + frac*values[j1]
}

func (g *Grid) Solve(pos []float64, out []float64) error {
	if err := checkLengths(pos, out); err != nil {
		return err
	}

	field, err := g.SolveGrid(g.Deposit(pos))
	if err != nil {
		return err
	}

	if g.opts.parallel {
		dynamo.ParallelFor(len(pos), g.opts.minChunk, func(_, start, end int) {
			g.Interpolate(field, pos[start:end], out[start:end])
		})
	} else {
		g.Interpolate(field, pos, out)
	}
	return checkFinite(out)
}

// Wavenumbers returns 2π·f_j for the standard DFT frequency ordering of n
// samples spaced ds apart: 0, 1, ..., ⌈n/2⌉-1, -⌊n/2⌋, ..., -1.
func Wavenumbers(n int, ds float64) []float64 {
	k := make([]float64, n)
	scale := 2 * math.Pi / (float64(n) * ds)
	for j := 0; j < n; j++ {
		f := j
		if j >= (n+1)/2 {
			f = j - n
		}
		k[j] = float64(f) * scale
	}
	return k
}
