package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/san-kum/lscsim/internal/dynamo"
)

// Phases converts snapshot i to phases in [0, 2π).
func Phases(traj *dynamo.Trajectory, i int) ([]float64, error) {
	if traj == nil || i < 0 || i >= traj.Len() {
		return nil, fmt.Errorf("%w: snapshot index %d out of range", dynamo.ErrDomain, i)
	}
	pos := traj.Ensemble(i).Pos
	scale := 2 * math.Pi / traj.Period

	phases := make([]float64, len(pos))
	for j, p := range pos {
		phases[j] = dynamo.Wrap(dynamo.Wrap(p, traj.Period)*scale, 2*math.Pi)
	}
	return phases, nil
}

// Bunching returns |b_n| = |<exp(i n θ)>| for n = 1..harmonics at snapshot i.
func Bunching(traj *dynamo.Trajectory, i, harmonics int) ([]float64, error) {
	if harmonics <= 0 {
		return nil, fmt.Errorf("%w: harmonic count must be positive, got %d", dynamo.ErrDomain, harmonics)
	}
	if traj == nil || i < 0 || i >= traj.Len() {
		return nil, fmt.Errorf("%w: snapshot index %d out of range", dynamo.ErrDomain, i)
	}
	return EnsembleBunching(traj.Ensemble(i), traj.Period, harmonics), nil
}

// EnsembleBunching is Bunching for a single ensemble whose positions repeat
// every period. Positions need not be wrapped.
func EnsembleBunching(ens *dynamo.Ensemble, period float64, harmonics int) []float64 {
	out := make([]float64, max(harmonics, 0))
	if ens == nil || ens.Len() == 0 {
		return out
	}
	scale := 2 * math.Pi / period
	for n := 1; n <= harmonics; n++ {
		var sum complex128
		for _, p := range ens.Pos {
			sum += cmplx.Rect(1, float64(n)*dynamo.Wrap(p, period)*scale)
		}
		out[n-1] = cmplx.Abs(sum) / float64(ens.Len())
	}
	return out
}

// BunchingHistory returns |b_n| at every snapshot; row i belongs to Z[i].
func BunchingHistory(traj *dynamo.Trajectory, harmonics int) ([][]float64, error) {
	rows := make([][]float64, traj.Len())
	for i := range rows {
		b, err := Bunching(traj, i, harmonics)
		if err != nil {
			return nil, err
		}
		rows[i] = b
	}
	return rows, nil
}
