package field

import (
	"fmt"
	"math"

	"github.com/san-kum/lscsim/internal/dynamo"
	"github.com/san-kum/lscsim/internal/physics"
)

// Harmonic resolves the field from the first N_h bunching harmonics.
// Structure finer than period/N_h is not represented.
type Harmonic struct {
	harmonics int
	scale     float64
	opts      options
}

func NewHarmonic(p *physics.Params, harmonics int, opts ...Option) (*Harmonic, error) {
	if harmonics <= 0 {
		return nil, fmt.Errorf("%w: harmonic count must be positive, got %d", dynamo.ErrDomain, harmonics)
	}
	return &Harmonic{
		harmonics: harmonics,
		scale:     p.HarmonicScale,
		opts:      buildOptions(opts),
	}, nil
}

func (h *Harmonic) Name() string                  { return "harmonic" }
func (h *Harmonic) Coordinate() dynamo.Coordinate { return dynamo.Phase }
func (h *Harmonic) Period() float64               { return 2 * math.Pi }
func (h *Harmonic) Harmonics() int                { return h.harmonics }

func (h *Harmonic) Solve(pos []float64, out []float64) error {
	if err := checkLengths(pos, out); err != nil {
		return err
	}

	phases := make([]float64, len(pos))
	for i, p := range pos {
		phases[i] = dynamo.Wrap(p, 2*math.Pi)
	}

	var spectrum []float64
	if h.opts.parallel {
		spectrum = bunchingParallel(phases, h.harmonics, h.opts.minChunk)
		dynamo.ParallelFor(len(phases), h.opts.minChunk, func(_, start, end int) {
			Synthesize(phases[start:end], spectrum, h.scale, out[start:end])
		})
	} else {
		spectrum = BunchingSpectrum(phases, h.harmonics)
		Synthesize(phases, spectrum, h.scale, out)
	}

	return checkFinite(out)
}

// Spectrum returns b_1..b_N_h for the given positions.
func (h *Harmonic) Spectrum(pos []float64) []float64 {
	phases := make([]float64, len(pos))
	for i, p := range pos {
		phases[i] = dynamo.Wrap(p, 2*math.Pi)
	}
	return BunchingSpectrum(phases, h.harmonics)
}

// BunchingSpectrum returns b[n-1] = mean(cos(n·θ)) for n = 1..harmonics.
// The value for harmonic n does not depend on how many harmonics are requested.
func BunchingSpectrum(phases []float64, harmonics int) []float64 {
	b := make([]float64, harmonics)
	if len(phases) == 0 {
		return b
	}
	accumulate(phases, b)
	inv := 1 / float64(len(phases))
	for n := range b {
		b[n] *= inv
	}
	return b
}

func accumulate(phases []float64, sums []float64) {
	for n := range sums {
		order := float64(n + 1)
		s := 0.0
		for _, th := range phases {
			s += math.Cos(order * th)
		}
		sums[n] += s
	}
}

func bunchingParallel(phases []float64, harmonics, minChunk int) []float64 {
	chunks := dynamo.Chunks(len(phases), minChunk)
	partial := make([][]float64, chunks)
	for c := range partial {
		partial[c] = make([]float64, harmonics)
	}

	dynamo.ParallelFor(len(phases), minChunk, func(c, start, end int) {
		accumulate(phases[start:end], partial[c])
	})

	b := make([]float64, harmonics)
	if len(phases) == 0 {
		return b
	}
	for c := 0; c < chunks; c++ {
		for n := range b {
			b[n] += partial[c][n]
		}
	}
	inv := 1 / float64(len(phases))
	for n := range b {
		b[n] *= inv
	}
	return b
}

// Synthesize writes E(θ) = -scale · Σ_n (b_n/n) sin(nθ) for every phase.
func Synthesize(phases, spectrum []float64, scale float64, out []float64) {
	for i, th := range phases {
		s := 0.0
		for n, bn := range spectrum {
			if bn == 0 {
				continue
			}
			order := float64(n + 1)
			s += bn / order * math.Sin(order*th)
		}
		out[i] = -scale * s
	}
}
