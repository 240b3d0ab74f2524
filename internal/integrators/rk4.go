package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/lscsim/internal/dynamo"
)

// RK4 is the classical fourth-order Runge-Kutta stepper. The stage buffer
// is reused across steps, so one RK4 serves one run at a time.
type RK4 struct {
	stage dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) Step(sys dynamo.System, x dynamo.State, z, h float64) (dynamo.State, error) {
	if len(r.stage) != len(x) {
		r.stage = make(dynamo.State, len(x))
	}

	k1, err := sys.Derive(z, x)
	if err != nil {
		return nil, err
	}
	k2, err := sys.Derive(z+h/2, floats.AddScaledTo(r.stage, x, h/2, k1))
	if err != nil {
		return nil, err
	}
	k3, err := sys.Derive(z+h/2, floats.AddScaledTo(r.stage, x, h/2, k2))
	if err != nil {
		return nil, err
	}
	k4, err := sys.Derive(z+h, floats.AddScaledTo(r.stage, x, h, k3))
	if err != nil {
		return nil, err
	}

	next := x.Clone()
	floats.AddScaled(next, h/6, k1)
	floats.AddScaled(next, h/3, k2)
	floats.AddScaled(next, h/3, k3)
	floats.AddScaled(next, h/6, k4)
	return next, nil
}
