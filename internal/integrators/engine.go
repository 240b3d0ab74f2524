package integrators

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/lscsim/internal/dynamo"
)

// Stepper advances a state by a single fixed step.
type Stepper interface {
	Name() string
	Step(sys dynamo.System, x dynamo.State, z, h float64) (dynamo.State, error)
}

var (
	_ dynamo.Engine = (*RK45)(nil)
	_ dynamo.Engine = (*FixedStep)(nil)
	_ Stepper       = (*RK4)(nil)
	_ Stepper       = (*Euler)(nil)
	_ Stepper       = (*Leapfrog)(nil)
	_ Stepper       = (*RK45)(nil)
)

func checkProblem(sys dynamo.System, span [2]float64, y0 dynamo.State, zEval []float64) error {
	if len(y0) != sys.Dim() {
		return fmt.Errorf("%w: state has %d entries, system expects %d", dynamo.ErrDimensionMismatch, len(y0), sys.Dim())
	}
	if !(span[1] > span[0]) || math.IsInf(span[1], 0) || math.IsNaN(span[0]) {
		return fmt.Errorf("%w: invalid span [%g, %g]", dynamo.ErrDomain, span[0], span[1])
	}
	if !sort.Float64sAreSorted(zEval) {
		return fmt.Errorf("%w: evaluation points must be sorted", dynamo.ErrDomain)
	}
	if len(zEval) > 0 && (zEval[0] < span[0] || zEval[len(zEval)-1] > span[1]) {
		return fmt.Errorf("%w: evaluation points outside [%g, %g]", dynamo.ErrDomain, span[0], span[1])
	}
	return nil
}

// recorder copies the state into the solution whenever z reaches the next
// evaluation point.
type recorder struct {
	zEval []float64
	pos   int
	sol   *dynamo.Solution
}

func newRecorder(zEval []float64, sol *dynamo.Solution) *recorder {
	return &recorder{zEval: zEval, sol: sol}
}

func (r *recorder) next(end float64) float64 {
	if r.pos < len(r.zEval) {
		return r.zEval[r.pos]
	}
	return end
}

func (r *recorder) record(z float64, y dynamo.State) {
	for r.pos < len(r.zEval) && r.zEval[r.pos] <= z {
		r.sol.Z = append(r.sol.Z, r.zEval[r.pos])
		r.sol.Y = append(r.sol.Y, y.Clone())
		r.pos++
	}
}

// FixedStep drives a Stepper with a constant step, shortening the last
// step of each segment so evaluation points are hit exactly.
type FixedStep struct {
	stepper Stepper
}

func NewFixedStep(s Stepper) *FixedStep {
	return &FixedStep{stepper: s}
}

func (f *FixedStep) Name() string { return f.stepper.Name() }

func (f *FixedStep) Solve(ctx context.Context, sys dynamo.System, span [2]float64, y0 dynamo.State, zEval []float64, opts dynamo.Options) (*dynamo.Solution, error) {
	if err := checkProblem(sys, span, y0, zEval); err != nil {
		return nil, err
	}

	h := opts.Step
	if h <= 0 {
		h = (span[1] - span[0]) / 1000
	}
	if opts.MaxStep > 0 && h > opts.MaxStep {
		h = opts.MaxStep
	}

	sol := &dynamo.Solution{}
	rec := newRecorder(zEval, sol)

	z, end := span[0], span[1]
	y := y0.Clone()
	rec.record(z, y)

	for z < end {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", dynamo.ErrCanceled, ctx.Err())
		default:
		}

		target := rec.next(end)
		n := int(math.Ceil((target - z) / h * (1 - 1e-12)))
		if n < 1 {
			n = 1
		}
		dz := (target - z) / float64(n)

		for i := 0; i < n; i++ {
			if opts.MaxSteps > 0 && sol.Steps >= opts.MaxSteps {
				sol.Message = fmt.Sprintf("maximum number of steps (%d) exceeded at z=%.6g", opts.MaxSteps, z)
				sol.Reason = dynamo.ErrMaxSteps
				return sol, nil
			}

			next, err := f.stepper.Step(sys, y, z, dz)
			if err != nil {
				return nil, err
			}
			sol.Steps++

			if i == n-1 {
				z = target
			} else {
				z += dz
			}
			if !next.IsValid() {
				return nil, &dynamo.SimulationError{Step: sol.Steps, Z: z, Message: "non-finite state", Wrapped: dynamo.ErrNumericAnomaly}
			}
			y = next
		}
		rec.record(z, y)
	}

	sol.Success = true
	sol.Message = "integration reached the end of the span"
	return sol, nil
}
