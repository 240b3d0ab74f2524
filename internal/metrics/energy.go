package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/lscsim/internal/dynamo"
)

// MeanEnergy is the average of <η> over all observed snapshots.
type MeanEnergy struct {
	name    string
	samples int
	total   float64
}

func NewMeanEnergy() *MeanEnergy {
	return &MeanEnergy{name: "mean_eta"}
}

func (e *MeanEnergy) Name() string { return e.name }

func (e *MeanEnergy) Observe(z float64, ens *dynamo.Ensemble) {
	if ens.Len() == 0 {
		return
	}
	e.total += stat.Mean(ens.Eta, nil)
	e.samples++
}

func (e *MeanEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *MeanEnergy) Reset() {
	e.total = 0
	e.samples = 0
}

// SpreadGrowth is the ratio of the latest projected spread to the first
// one observed.
type SpreadGrowth struct {
	name      string
	initial   float64
	current   float64
	maxGrowth float64
	samples   int
}

func NewSpreadGrowth() *SpreadGrowth {
	return &SpreadGrowth{name: "spread_growth"}
}

func (s *SpreadGrowth) Name() string { return s.name }

func (s *SpreadGrowth) Observe(z float64, ens *dynamo.Ensemble) {
	spread := stat.PopStdDev(ens.Eta, nil)

	if s.samples == 0 {
		s.initial = spread
	}
	s.current = spread
	s.samples++

	if s.initial != 0 {
		s.maxGrowth = math.Max(s.maxGrowth, spread/s.initial)
	}
}

func (s *SpreadGrowth) Value() float64 {
	if s.samples == 0 || s.initial == 0 {
		return 0
	}
	return s.current / s.initial
}

// Max is the largest growth seen at any snapshot.
func (s *SpreadGrowth) Max() float64 { return s.maxGrowth }

func (s *SpreadGrowth) Reset() {
	s.initial = 0
	s.current = 0
	s.maxGrowth = 0
	s.samples = 0
}
