package metrics

import (
	"math"
	"math/cmplx"

	"github.com/san-kum/lscsim/internal/dynamo"
)

// PeakBunching tracks max_z |b_1|.
type PeakBunching struct {
	name   string
	period float64
	peak   float64
	peakZ  float64
}

func NewPeakBunching(period float64) *PeakBunching {
	return &PeakBunching{name: "peak_bunching", period: period}
}

func (b *PeakBunching) Name() string { return b.name }

func (b *PeakBunching) Observe(z float64, ens *dynamo.Ensemble) {
	n := ens.Len()
	if n == 0 {
		return
	}
	scale := 2 * math.Pi / b.period
	var sum complex128
	for _, p := range ens.Pos {
		sum += cmplx.Rect(1, p*scale)
	}
	if v := cmplx.Abs(sum) / float64(n); v > b.peak {
		b.peak, b.peakZ = v, z
	}
}

func (b *PeakBunching) Value() float64 { return b.peak }

// Z is where the peak was observed.
func (b *PeakBunching) Z() float64 { return b.peakZ }

func (b *PeakBunching) Reset() {
	b.peak = 0
	b.peakZ = 0
}
