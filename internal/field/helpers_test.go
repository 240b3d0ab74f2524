package field_test

import (
	"math"

	"github.com/san-kum/lscsim/internal/config"
	"github.com/san-kum/lscsim/internal/dynamo"
	"github.com/san-kum/lscsim/internal/physics"
)

func testParams(n int, coord dynamo.Coordinate) *physics.Params {
	cfg := config.DefaultConfig()
	cfg.Beam.Particles = n
	return physics.Derive(cfg, coord)
}

// quietPhases returns n evenly spaced phases over [0, 2π).
func quietPhases(n int) []float64 {
	th := make([]float64, n)
	for i := range th {
		th[i] = 2 * math.Pi * (float64(i) + 0.5) / float64(n)
	}
	return th
}

// cosineBunched returns phases whose density is close to 1 - eps·cos θ.
func cosineBunched(n int, eps float64) []float64 {
	th := quietPhases(n)
	for i, u := range th {
		th[i] = u + eps*math.Sin(u)
	}
	return th
}

func maxAbs(v []float64) float64 {
	m := 0.0
	for _, x := range v {
		m = math.Max(m, math.Abs(x))
	}
	return m
}
