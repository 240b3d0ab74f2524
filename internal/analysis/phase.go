package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/lscsim/internal/dynamo"
)

// PhasePortrait2D holds the longitudinal phase space of one snapshot:
// X is the wrapped position or phase, Y is η.
type PhasePortrait2D struct {
	Z      float64
	Points []struct{ X, Y float64 }
}

// NewPhasePortrait samples at most maxPoints particles of snapshot i,
// taking every k-th particle so the index order is preserved.
func NewPhasePortrait(traj *dynamo.Trajectory, i, maxPoints int) *PhasePortrait2D {
	if traj == nil || i < 0 || i >= traj.Len() {
		return nil
	}
	return EnsemblePortrait(traj.Wrapped(i), traj.Z[i], maxPoints)
}

// EnsemblePortrait samples ens as it is; callers wrap positions first.
func EnsemblePortrait(ens *dynamo.Ensemble, z float64, maxPoints int) *PhasePortrait2D {
	if ens == nil {
		return nil
	}
	n := ens.Len()
	stride := 1
	if maxPoints > 0 && n > maxPoints {
		stride = (n + maxPoints - 1) / maxPoints
	}

	portrait := &PhasePortrait2D{
		Z:      z,
		Points: make([]struct{ X, Y float64 }, 0, n/stride+1),
	}
	for j := 0; j < n; j += stride {
		portrait.Points = append(portrait.Points, struct{ X, Y float64 }{
			X: ens.Pos[j],
			Y: ens.Eta[j],
		})
	}

	return portrait
}

// shades orders cell occupancy from empty to densest.
var shades = []rune(" .:-=+*#%@")

// PhasePortraitToASCII renders the portrait as a width×height density map:
// the horizontal axis spans one period, the vertical axis ±1.1·max|η| with
// η = 0 drawn as a rule. Darker characters mean more particles per cell.
func PhasePortraitToASCII(portrait *PhasePortrait2D, period float64, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 1 || height < 1 || period <= 0 {
		return ""
	}

	etaMax := 0.0
	for _, p := range portrait.Points {
		etaMax = math.Max(etaMax, math.Abs(p.Y))
	}
	if etaMax == 0 {
		etaMax = 1
	}
	ymax := 1.1 * etaMax

	counts := make([][]int, height)
	for r := range counts {
		counts[r] = make([]int, width)
	}
	peak := 0
	for _, p := range portrait.Points {
		col := int(p.X / period * float64(width))
		row := int((ymax - p.Y) / (2 * ymax) * float64(height))
		col = min(max(col, 0), width-1)
		row = min(max(row, 0), height-1)
		counts[row][col]++
		peak = max(peak, counts[row][col])
	}

	axis := height / 2
	var sb strings.Builder
	for r, cells := range counts {
		for _, n := range cells {
			switch {
			case n > 0:
				level := 1 + (n-1)*(len(shades)-2)/max(peak-1, 1)
				sb.WriteRune(shades[level])
			case r == axis:
				sb.WriteRune('─')
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}
	return sb.String()
}
