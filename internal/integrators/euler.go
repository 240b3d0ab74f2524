package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/lscsim/internal/dynamo"
)

// Euler is the explicit first-order stepper. Useful only as a baseline.
type Euler struct{}

func NewEuler() *Euler { return &Euler{} }

func (Euler) Name() string { return "euler" }

func (Euler) Step(sys dynamo.System, x dynamo.State, z, h float64) (dynamo.State, error) {
	dx, err := sys.Derive(z, x)
	if err != nil {
		return nil, err
	}
	return floats.AddScaledTo(make(dynamo.State, len(x)), x, h, dx), nil
}
