package config

import (
	"math"
	"sort"
)

type param struct {
	get func(*Config) float64
	set func(*Config, float64)
}

func intParam(field func(*Config) *int) param {
	return param{
		get: func(c *Config) float64 { return float64(*field(c)) },
		set: func(c *Config, v float64) { *field(c) = int(math.Round(v)) },
	}
}

func floatParam(field func(*Config) *float64) param {
	return param{
		get: func(c *Config) float64 { return *field(c) },
		set: func(c *Config, v float64) { *field(c) = v },
	}
}

// params maps the dotted yaml path of every numeric field to its accessors.
// Integer fields round to the nearest value.
var params = map[string]param{
	"seed": {
		get: func(c *Config) float64 { return float64(c.Seed) },
		set: func(c *Config, v float64) { c.Seed = int64(math.Round(v)) },
	},
	"beam.particles":     intParam(func(c *Config) *int { return &c.Beam.Particles }),
	"beam.gamma":         floatParam(func(c *Config) *float64 { return &c.Beam.Gamma }),
	"beam.energy_spread": floatParam(func(c *Config) *float64 { return &c.Beam.EnergySpread }),
	"beam.current":       floatParam(func(c *Config) *float64 { return &c.Beam.Current }),
	"beam.radius":        floatParam(func(c *Config) *float64 { return &c.Beam.Radius }),
	"laser.wavelength":   floatParam(func(c *Config) *float64 { return &c.Laser.Wavelength }),
	"laser.modulation":   floatParam(func(c *Config) *float64 { return &c.Laser.Modulation }),
	"laser.compression":  floatParam(func(c *Config) *float64 { return &c.Laser.Compression }),
	"field.harmonics":    intParam(func(c *Config) *int { return &c.Field.Harmonics }),
	"field.grid_points":  intParam(func(c *Config) *int { return &c.Field.GridPoints }),
	"drift.length":       floatParam(func(c *Config) *float64 { return &c.Drift.Length }),
	"drift.eval_points":  intParam(func(c *Config) *int { return &c.Drift.EvalPoints }),
	"drift.rtol":         floatParam(func(c *Config) *float64 { return &c.Drift.RTol }),
	"drift.atol":         floatParam(func(c *Config) *float64 { return &c.Drift.ATol }),
	"drift.max_step":     floatParam(func(c *Config) *float64 { return &c.Drift.MaxStep }),
	"drift.step":         floatParam(func(c *Config) *float64 { return &c.Drift.Step }),
	"drift.max_steps":    intParam(func(c *Config) *int { return &c.Drift.MaxSteps }),
}

// SetParam sets a numeric field by its dotted yaml path, e.g.
// "laser.compression".
func (c *Config) SetParam(name string, v float64) error {
	p, ok := params[name]
	if !ok {
		return domainErr("unknown parameter %q", name)
	}
	p.set(c, v)
	return nil
}

// Param reads a numeric field by its dotted yaml path.
func (c *Config) Param(name string) (float64, error) {
	p, ok := params[name]
	if !ok {
		return 0, domainErr("unknown parameter %q", name)
	}
	return p.get(c), nil
}

func ParamNames() []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
