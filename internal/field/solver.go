package field

import (
	"fmt"
	"math"

	"github.com/san-kum/lscsim/internal/dynamo"
)

type Solver interface {
	Name() string
	Coordinate() dynamo.Coordinate
	Period() float64
	// Solve writes the field at each position into out.
	Solve(pos []float64, out []float64) error
}

type options struct {
	parallel bool
	minChunk int
	interp   Interpolation
}

type Option func(*options)

// WithParallel splits per-particle work into fixed chunks. Partial sums
// are reduced in chunk order so results are repeatable.
func WithParallel(on bool) Option {
	return func(o *options) { o.parallel = on }
}

// WithMinChunk sets the smallest per-worker slice when running in parallel.
func WithMinChunk(n int) Option {
	return func(o *options) { o.minChunk = n }
}

func WithInterpolation(i Interpolation) Option {
	return func(o *options) { o.interp = i }
}

func buildOptions(opts []Option) options {
	o := options{minChunk: 2048, interp: Linear}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func checkLengths(pos, out []float64) error {
	if len(pos) != len(out) {
		return fmt.Errorf("%w: %d positions, %d outputs", dynamo.ErrDimensionMismatch, len(pos), len(out))
	}
	return nil
}

func checkFinite(values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: field[%d] = %v", dynamo.ErrNumericAnomaly, i, v)
		}
	}
	return nil
}
