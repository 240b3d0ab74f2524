package metrics

import (
	"math"

	"github.com/san-kum/lscsim/internal/dynamo"
)

// Stability is the fraction of snapshots whose largest |η| stays within
// bound. A NaN energy counts as out of bounds.
type Stability struct {
	bound float64
	peak  float64
	bad   int
	total int
}

func NewStability(bound float64) *Stability {
	return &Stability{bound: bound}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Observe(_ float64, ens *dynamo.Ensemble) {
	s.total++
	worst := 0.0
	for _, eta := range ens.Eta {
		if math.IsNaN(eta) {
			worst = math.Inf(1)
			break
		}
		worst = math.Max(worst, math.Abs(eta))
	}
	if worst > s.bound {
		s.bad++
	}
	if s.bound > 0 {
		s.peak = math.Max(s.peak, worst/s.bound)
	}
}

func (s *Stability) Value() float64 {
	if s.total == 0 {
		return 1
	}
	return float64(s.total-s.bad) / float64(s.total)
}

// Peak is the largest |η| seen so far in units of the bound.
func (s *Stability) Peak() float64 { return s.peak }

func (s *Stability) Reset() {
	*s = Stability{bound: s.bound}
}
