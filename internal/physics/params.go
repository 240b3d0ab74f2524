package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/lscsim/internal/config"
	"github.com/san-kum/lscsim/internal/dynamo"
)

// Params holds every constant derived from a configuration. It is built
// once per run and never mutated afterwards.
type Params struct {
	N     int
	Coord dynamo.Coordinate

	Wavelength float64 // λ, m
	K          float64 // 2π/λ, 1/m
	Gamma      float64 // γ0
	SigmaEta   float64 // σ_η0
	Modulation float64 // A, absolute
	R56        float64 // m

	Current     float64 // A
	Area        float64 // m²
	Density     float64 // n0, 1/m³
	MacroCharge float64 // signed charge per macro-particle, C

	// HarmonicScale is C in E(θ) = -C Σ (b_n/n) sin nθ.
	HarmonicScale float64
	// KEta maps longitudinal field (V/m) to dη/dz (1/m). It carries the
	// electron charge sign.
	KEta float64
	// KDrift maps η to d(pos)/dz in the active coordinate.
	KDrift float64
}

// NewParams derives Params from a validated configuration. The harmonic
// solver runs in phase coordinates, the grid solver in positions.
func NewParams(cfg *config.Config) (*Params, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	coord := dynamo.Phase
	if cfg.Solver == config.SolverGrid {
		coord = dynamo.Position
	}
	return Derive(cfg, coord), nil
}

// Derive computes Params for the given coordinate without validation.
func Derive(cfg *config.Config, coord dynamo.Coordinate) *Params {
	lambda := cfg.Laser.Wavelength
	k := 2 * math.Pi / lambda
	gamma := cfg.Beam.Gamma
	sigma := cfg.Beam.EnergySpread
	area := math.Pi * cfg.Beam.Radius * cfg.Beam.Radius
	n := cfg.Beam.Particles

	density := cfg.Beam.Current / (ElementaryCharge * SpeedOfLight * area)

	p := &Params{
		N:             n,
		Coord:         coord,
		Wavelength:    lambda,
		K:             k,
		Gamma:         gamma,
		SigmaEta:      sigma,
		Modulation:    cfg.Laser.Modulation * sigma,
		R56:           cfg.Laser.Compression / (k * sigma),
		Current:       cfg.Beam.Current,
		Area:          area,
		Density:       density,
		MacroCharge:   -cfg.Beam.Current * lambda / (SpeedOfLight * float64(n)),
		HarmonicScale: 2 * ElementaryCharge * density / (k * VacuumPermittivity),
		KEta:          -1 / (gamma * ElectronRestEnergy),
	}

	switch coord {
	case dynamo.Phase:
		p.KDrift = k / (gamma * gamma)
	default:
		p.KDrift = 1 / (gamma * gamma)
	}
	return p
}

// Period is 2π in phase coordinates and λ in positions.
func (p *Params) Period() float64 {
	if p.Coord == dynamo.Phase {
		return 2 * math.Pi
	}
	return p.Wavelength
}

func (p *Params) String() string {
	return fmt.Sprintf("N=%d coord=%s γ0=%.1f σ_η=%.3g A=%.3g R56=%.4g m n0=%.3g m⁻³",
		p.N, p.Coord, p.Gamma, p.SigmaEta, p.Modulation, p.R56, p.Density)
}
