package config

import "sort"

// Presets are named overrides applied on top of DefaultConfig.
var Presets = map[string]func(*Config){
	// HGHG-style seeding: strong modulation, optimal first-harmonic bunching.
	"hghg": func(c *Config) {
		c.Laser.Modulation = 3.0
		c.Laser.Compression = 0.6
	},
	// Uniform quiet-start beam with no modulation; the field stays at zero.
	"quiet": func(c *Config) {
		c.Loading = LoadingQuiet
		c.Beam.Particles = 1000
		c.Laser.Modulation = 0
		c.Laser.Compression = 0
	},
	// Low-energy, high-current beam where space charge dominates.
	"cold": func(c *Config) {
		c.Beam.Gamma = 300
		c.Beam.Current = 200
		c.Laser.Modulation = 5
		c.Laser.Compression = 0.4
		c.Drift.Length = 0.5
	},
	"grid-fine": func(c *Config) {
		c.Solver = SolverGrid
		c.Field.GridPoints = 1024
		c.Beam.Particles = 100000
	},
}

// GetPreset returns DefaultConfig with the named preset applied, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
