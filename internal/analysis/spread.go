package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/lscsim/internal/dynamo"
)

// EnergySpread returns the population standard deviation of η at every
// snapshot divided by sigma0.
func EnergySpread(traj *dynamo.Trajectory, sigma0 float64) ([]float64, error) {
	if !(sigma0 > 0) {
		return nil, fmt.Errorf("%w: reference spread must be positive, got %g", dynamo.ErrDomain, sigma0)
	}
	if traj == nil || traj.Len() == 0 {
		return nil, fmt.Errorf("%w: empty trajectory", dynamo.ErrDomain)
	}

	spread := make([]float64, traj.Len())
	for i := range spread {
		spread[i] = stat.PopStdDev(traj.Ensemble(i).Eta, nil) / sigma0
	}
	return spread, nil
}

// Report summarizes a finished drift.
type Report struct {
	Coord   dynamo.Coordinate
	Length  float64
	Z       []float64
	Spread  []float64
	Initial float64
	Final   float64
	// Growth is Final/Initial.
	Growth float64
	// PeakBunching is max_z |b_1|.
	PeakBunching float64
	PeakZ        float64
	MeanEta      float64
	Steps        int
	Evaluations  int
}

func NewReport(traj *dynamo.Trajectory, sigma0 float64) (*Report, error) {
	spread, err := EnergySpread(traj, sigma0)
	if err != nil {
		return nil, err
	}

	r := &Report{
		Coord:       traj.Coord,
		Length:      traj.Z[traj.Len()-1],
		Z:           traj.Z,
		Spread:      spread,
		Initial:     spread[0],
		Final:       spread[len(spread)-1],
		MeanEta:     stat.Mean(traj.Final().Eta, nil),
		Steps:       traj.Steps,
		Evaluations: traj.Evaluations,
	}
	if r.Initial > 0 {
		r.Growth = r.Final / r.Initial
	} else {
		r.Growth = math.NaN()
	}

	for i := 0; i < traj.Len(); i++ {
		b, err := Bunching(traj, i, 1)
		if err != nil {
			return nil, err
		}
		if b[0] > r.PeakBunching {
			r.PeakBunching, r.PeakZ = b[0], traj.Z[i]
		}
	}

	return r, nil
}

func (r *Report) String() string {
	return fmt.Sprintf("spread %.4f -> %.4f (x%.3f) over %.4g m, peak |b1|=%.4f at z=%.4g m",
		r.Initial, r.Final, r.Growth, r.Length, r.PeakBunching, r.PeakZ)
}
