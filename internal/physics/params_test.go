package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/lscsim/internal/config"
	"github.com/san-kum/lscsim/internal/dynamo"
)

func TestNewParams_Coordinate(t *testing.T) {
	cfg := config.DefaultConfig()

	p, err := NewParams(cfg)
	if err != nil {
		t.Fatalf("NewParams failed: %v", err)
	}
	if p.Coord != dynamo.Phase || p.Period() != 2*math.Pi {
		t.Errorf("harmonic solver should use phase coordinates, got %s period %g", p.Coord, p.Period())
	}

	cfg.Solver = config.SolverGrid
	p, err = NewParams(cfg)
	if err != nil {
		t.Fatalf("NewParams failed: %v", err)
	}
	if p.Coord != dynamo.Position || p.Period() != cfg.Laser.Wavelength {
		t.Errorf("grid solver should use positions, got %s period %g", p.Coord, p.Period())
	}
}

func TestNewParams_Invalid(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Beam.Particles = 0
	if _, err := NewParams(cfg); !errors.Is(err, dynamo.ErrDomain) {
		t.Errorf("expected ErrDomain, got %v", err)
	}
}

func TestDerive_Constants(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Beam.Particles = 1000

	phase := Derive(cfg, dynamo.Phase)
	pos := Derive(cfg, dynamo.Position)

	if math.Abs(phase.KDrift/pos.KDrift-phase.K) > 1e-9*phase.K {
		t.Errorf("phase drift should be k times position drift: %g vs %g", phase.KDrift, pos.KDrift)
	}

	// Mean charge density of the macro-particles equals -e·n0.
	rho := float64(cfg.Beam.Particles) * phase.MacroCharge / (phase.Wavelength * phase.Area)
	if math.Abs(rho+ElementaryCharge*phase.Density) > 1e-9*math.Abs(rho) {
		t.Errorf("macro charge inconsistent with density: %g vs %g", rho, -ElementaryCharge*phase.Density)
	}

	if phase.KEta >= 0 {
		t.Errorf("KEta must carry the electron charge sign, got %g", phase.KEta)
	}

	// k·R56·σ_η reproduces the configured compression.
	if got := phase.K * phase.R56 * phase.SigmaEta; math.Abs(got-cfg.Laser.Compression) > 1e-12 {
		t.Errorf("compression = %g, want %g", got, cfg.Laser.Compression)
	}
	if got := phase.Modulation / phase.SigmaEta; math.Abs(got-cfg.Laser.Modulation) > 1e-12 {
		t.Errorf("modulation ratio = %g, want %g", got, cfg.Laser.Modulation)
	}
}
