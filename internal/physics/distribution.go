package physics

import (
	"math"
	"math/rand"

	"github.com/san-kum/lscsim/internal/dynamo"
)

// Initializer produces the initial ensemble: uncorrelated Gaussian
// energies, phases over one period, a sinusoidal energy modulation and a
// linear dispersive map.
type Initializer struct {
	params *Params
	rng    *rand.Rand
	quiet  bool
}

// NewInitializer draws from rng. With quiet set, phases are evenly spaced
// at 2π(i+½)/N instead of sampled.
func NewInitializer(p *Params, rng *rand.Rand, quiet bool) *Initializer {
	return &Initializer{params: p, rng: rng, quiet: quiet}
}

func (in *Initializer) Generate() *dynamo.Ensemble {
	n := in.params.N

	eta0 := make([]float64, n)
	for i := range eta0 {
		eta0[i] = in.rng.NormFloat64() * in.params.SigmaEta
	}

	theta0 := make([]float64, n)
	for i := range theta0 {
		if in.quiet {
			theta0[i] = 2 * math.Pi * (float64(i) + 0.5) / float64(n)
		} else {
			theta0[i] = in.rng.Float64() * 2 * math.Pi
		}
	}

	return Modulate(in.params, eta0, theta0)
}

// Modulate applies the deterministic part of the initialization to drawn
// energies and phases: η1 = η0 + A sin θ0, then the R56 map, reduced into
// one period of the active coordinate.
func Modulate(p *Params, eta0, theta0 []float64) *dynamo.Ensemble {
	ens := dynamo.NewEnsemble(len(eta0))

	for i := range eta0 {
		eta1 := eta0[i] + p.Modulation*math.Sin(theta0[i])
		ens.Eta[i] = eta1

		switch p.Coord {
		case dynamo.Phase:
			ens.Pos[i] = dynamo.Wrap(theta0[i]+p.K*p.R56*eta1, 2*math.Pi)
		default:
			ens.Pos[i] = dynamo.Wrap(theta0[i]/p.K+p.R56*eta1, p.Wavelength)
		}
	}

	return ens
}
