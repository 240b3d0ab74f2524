package physics

import (
	"fmt"

	"github.com/san-kum/lscsim/internal/dynamo"
)

// FieldSolver returns the longitudinal electric field (V/m) at each
// position. Positions are passed unwrapped and must not be modified.
type FieldSolver interface {
	Solve(pos []float64, out []float64) error
}

// LSC is the collective right-hand side of a field-free drift:
//
//	dη/dz   = K_eta · E(pos)
//	dpos/dz = K_drift · η
//
// It keeps no state between calls.
type LSC struct {
	params *Params
	solver FieldSolver
}

func NewLSC(p *Params, solver FieldSolver) *LSC {
	return &LSC{params: p, solver: solver}
}

func (l *LSC) Dim() int { return 2 * l.params.N }

func (l *LSC) Params() *Params { return l.params }

func (l *LSC) Derive(z float64, x dynamo.State) (dynamo.State, error) {
	if len(x) != l.Dim() {
		return nil, fmt.Errorf("%w: got %d, want %d", dynamo.ErrDimensionMismatch, len(x), l.Dim())
	}
	ens, err := dynamo.View(x)
	if err != nil {
		return nil, err
	}

	n := l.params.N
	dx := make(dynamo.State, 2*n)
	dpos, deta := dx[:n], dx[n:]

	if err := l.solver.Solve(ens.Pos, deta); err != nil {
		return nil, err
	}

	kEta, kDrift := l.params.KEta, l.params.KDrift
	for i := 0; i < n; i++ {
		deta[i] *= kEta
		dpos[i] = kDrift * ens.Eta[i]
	}

	return dx, nil
}

func (l *LSC) Coordinate() dynamo.Coordinate { return l.params.Coord }

func (l *LSC) Period() float64 { return l.params.Period() }
