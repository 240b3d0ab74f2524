package dynamo

import (
	"context"
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Coordinate selects how the longitudinal block of a State is interpreted.
type Coordinate int

const (
	// Phase is an angle with period 2π.
	Phase Coordinate = iota
	// Position is an absolute longitudinal offset in meters with period λ.
	Position
)

func (c Coordinate) String() string {
	switch c {
	case Phase:
		return "phase"
	case Position:
		return "position"
	default:
		return fmt.Sprintf("coordinate(%d)", int(c))
	}
}

// Ensemble is the structured view of a particle state. Pos[i] and Eta[i]
// always describe the same particle.
type Ensemble struct {
	Pos []float64
	Eta []float64
}

func NewEnsemble(n int) *Ensemble {
	return &Ensemble{
		Pos: make([]float64, n),
		Eta: make([]float64, n),
	}
}

func (e *Ensemble) Len() int { return len(e.Pos) }

func (e *Ensemble) Clone() *Ensemble {
	c := NewEnsemble(e.Len())
	copy(c.Pos, e.Pos)
	copy(c.Eta, e.Eta)
	return c
}

// State packs the ensemble into a freshly allocated flat vector.
func (e *Ensemble) State() State {
	n := e.Len()
	x := make(State, 2*n)
	copy(x[:n], e.Pos)
	copy(x[n:], e.Eta)
	return x
}

// Wrapped returns a copy with positions reduced into [0, period).
func (e *Ensemble) Wrapped(period float64) *Ensemble {
	c := e.Clone()
	for i, p := range c.Pos {
		c.Pos[i] = Wrap(p, period)
	}
	return c
}

// View slices x into an Ensemble without copying.
func View(x State) (*Ensemble, error) {
	if len(x)%2 != 0 {
		return nil, fmt.Errorf("%w: state length %d is odd", ErrDimensionMismatch, len(x))
	}
	n := len(x) / 2
	return &Ensemble{Pos: x[:n:n], Eta: x[n:]}, nil
}

// Wrap reduces v into [0, period). Values that round up to period after
// reduction map to 0.
func Wrap(v, period float64) float64 {
	r := math.Mod(v, period)
	if r < 0 {
		r += period
	}
	if r >= period {
		r = 0
	}
	return r
}

// System is an ODE right-hand side. Implementations must depend only on
// their arguments and must not retain or mutate x.
type System interface {
	Derive(z float64, x State) (State, error)
	Dim() int
}

// Options controls an Engine run.
type Options struct {
	RTol      float64
	ATol      float64
	MaxStep   float64
	FirstStep float64
	// Step is the fixed step of non-adaptive engines.
	Step     float64
	MaxSteps int
}

func DefaultOptions() Options {
	return Options{
		RTol:     1e-6,
		ATol:     1e-9,
		MaxSteps: 100000,
	}
}

// Solution is what an Engine returns. Success=false carries the reason in
// Message; Z and Y then hold whatever was recorded before the failure and
// must not be reported as a result.
type Solution struct {
	Success     bool
	Z           []float64
	Y           []State
	Message     string
	// Reason is ErrMaxSteps or ErrStepTooSmall when Success is false.
	Reason      error
	Steps       int
	Rejected    int
	Evaluations int
}

// Engine integrates sys from span[0] to span[1] starting at y0 and records
// the state at every zEval point. Errors returned by sys.Derive abort the
// solve and are returned as-is.
type Engine interface {
	Name() string
	Solve(ctx context.Context, sys System, span [2]float64, y0 State, zEval []float64, opts Options) (*Solution, error)
}

type Metric interface {
	Name() string
	Observe(z float64, e *Ensemble)
	Value() float64
	Reset()
}

type Observer interface {
	OnSnapshot(index int, z float64, e *Ensemble)
}

// Trajectory holds snapshots at monotonically increasing z. Positions in
// States are unwrapped.
type Trajectory struct {
	Z      []float64
	States []State
	Coord  Coordinate
	Period float64

	Metrics     map[string]float64
	Steps       int
	Rejected    int
	Evaluations int
}

func (t *Trajectory) Len() int { return len(t.Z) }

// Ensemble returns a view of snapshot i. The view aliases the trajectory.
func (t *Trajectory) Ensemble(i int) *Ensemble {
	e, _ := View(t.States[i])
	return e
}

// Wrapped returns a copy of snapshot i with positions reduced into [0, Period).
func (t *Trajectory) Wrapped(i int) *Ensemble {
	return t.Ensemble(i).Wrapped(t.Period)
}

func (t *Trajectory) Final() *Ensemble {
	return t.Ensemble(t.Len() - 1)
}
