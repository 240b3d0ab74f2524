package integrators

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/lscsim/internal/dynamo"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// RK45 is an adaptive Dormand-Prince 5(4) engine with mixed
// absolute/relative error control. Steps are shortened to land exactly on
// every evaluation point.
type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (r *RK45) Name() string { return "rk45" }

// Step advances x by one fixed step of size h with the fifth-order solution.
func (r *RK45) Step(sys dynamo.System, x dynamo.State, z, h float64) (dynamo.State, error) {
	k1, err := sys.Derive(z, x)
	if err != nil {
		return nil, err
	}
	st, _, err := r.attempt(sys, x, k1, z, h)
	if err != nil {
		return nil, err
	}
	return st.x, nil
}

type dpStep struct {
	x, k7, errEst dynamo.State
}

func (r *RK45) attempt(sys dynamo.System, x, k1 dynamo.State, t, dt float64) (*dpStep, int, error) {
	n := len(x)
	stage := make(dynamo.State, n)

	for i := 0; i < n; i++ {
		stage[i] = x[i] + dt*b21*k1[i]
	}
	k2, err := sys.Derive(t+a2*dt, stage)
	if err != nil {
		return nil, 1, err
	}

	for i := 0; i < n; i++ {
		stage[i] = x[i] + dt*(b31*k1[i]+b32*k2[i])
	}
	k3, err := sys.Derive(t+a3*dt, stage)
	if err != nil {
		return nil, 2, err
	}

	for i := 0; i < n; i++ {
		stage[i] = x[i] + dt*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4, err := sys.Derive(t+a4*dt, stage)
	if err != nil {
		return nil, 3, err
	}

	for i := 0; i < n; i++ {
		stage[i] = x[i] + dt*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5, err := sys.Derive(t+a5*dt, stage)
	if err != nil {
		return nil, 4, err
	}

	for i := 0; i < n; i++ {
		stage[i] = x[i] + dt*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6, err := sys.Derive(t+dt, stage)
	if err != nil {
		return nil, 5, err
	}

	xNew := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + dt*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}

	k7, err := sys.Derive(t+dt, xNew)
	if err != nil {
		return nil, 6, err
	}

	errEst := stage
	for i := 0; i < n; i++ {
		errEst[i] = dt * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
	}

	return &dpStep{x: xNew, k7: k7, errEst: errEst}, 6, nil
}

// errorNorm is the RMS of the error estimate scaled by atol + rtol·|y|.
func errorNorm(x, xNew, errEst dynamo.State, rtol, atol float64) float64 {
	sum := 0.0
	for i := range errEst {
		sc := atol + rtol*math.Max(math.Abs(x[i]), math.Abs(xNew[i]))
		e := errEst[i] / sc
		sum += e * e
	}
	return math.Sqrt(sum / float64(len(errEst)))
}

func (r *RK45) Solve(ctx context.Context, sys dynamo.System, span [2]float64, y0 dynamo.State, zEval []float64, opts dynamo.Options) (*dynamo.Solution, error) {
	if err := checkProblem(sys, span, y0, zEval); err != nil {
		return nil, err
	}
	if opts.RTol <= 0 || opts.ATol <= 0 {
		return nil, fmt.Errorf("%w: tolerances must be positive (rtol=%g, atol=%g)", dynamo.ErrDomain, opts.RTol, opts.ATol)
	}

	sol := &dynamo.Solution{}
	rec := newRecorder(zEval, sol)

	z, end := span[0], span[1]
	y := y0.Clone()
	rec.record(z, y)

	f, err := sys.Derive(z, y)
	if err != nil {
		return nil, err
	}
	sol.Evaluations++

	h := opts.FirstStep
	if h <= 0 {
		h, err = r.initialStep(sys, z, y, f, end-z, opts)
		if err != nil {
			return nil, err
		}
		sol.Evaluations++
	}

	for z < end {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", dynamo.ErrCanceled, ctx.Err())
		default:
		}

		if opts.MaxSteps > 0 && sol.Steps+sol.Rejected >= opts.MaxSteps {
			sol.Message = fmt.Sprintf("maximum number of steps (%d) exceeded at z=%.6g", opts.MaxSteps, z)
			sol.Reason = dynamo.ErrMaxSteps
			return sol, nil
		}

		if opts.MaxStep > 0 && h > opts.MaxStep {
			h = opts.MaxStep
		}

		target := rec.next(end)
		hStep := h
		landing := false
		if z+hStep >= target {
			hStep = target - z
			landing = true
		}

		spacing := math.Nextafter(math.Abs(z), math.Inf(1)) - math.Abs(z)
		if hStep < 10*spacing {
			sol.Message = fmt.Sprintf("required step size %.3g is below the spacing of numbers at z=%.6g", hStep, z)
			sol.Reason = dynamo.ErrStepTooSmall
			return sol, nil
		}

		att, evals, err := r.attempt(sys, y, f, z, hStep)
		sol.Evaluations += evals
		if err != nil {
			return nil, err
		}

		errNorm := errorNorm(y, att.x, att.errEst, opts.RTol, opts.ATol)
		if math.IsNaN(errNorm) || errNorm > 1 {
			sol.Rejected++
			scale := r.minScale
			if !math.IsNaN(errNorm) {
				scale = math.Max(r.minScale, r.safety*math.Pow(errNorm, -0.25))
			}
			h = hStep * scale
			continue
		}

		if landing {
			z = target
		} else {
			z += hStep
		}
		y, f = att.x, att.k7
		sol.Steps++

		if !y.IsValid() {
			return nil, &dynamo.SimulationError{Step: sol.Steps, Z: z, Message: "non-finite state", Wrapped: dynamo.ErrNumericAnomaly}
		}
		rec.record(z, y)

		scale := r.maxScale
		if errNorm > 0 {
			scale = math.Min(r.maxScale, r.safety*math.Pow(errNorm, -0.2))
		}
		if landing {
			h = math.Max(h, hStep*scale)
		} else {
			h = hStep * scale
		}
	}

	sol.Success = true
	sol.Message = "integration reached the end of the span"
	return sol, nil
}

// initialStep follows Hairer, Nørsett & Wanner (II.4) for choosing the
// first step of an order-5 method.
func (r *RK45) initialStep(sys dynamo.System, z float64, y, f dynamo.State, span float64, opts dynamo.Options) (float64, error) {
	n := len(y)
	d0, d1 := 0.0, 0.0
	for i := 0; i < n; i++ {
		sc := opts.ATol + opts.RTol*math.Abs(y[i])
		d0 += (y[i] / sc) * (y[i] / sc)
		d1 += (f[i] / sc) * (f[i] / sc)
	}
	d0 = math.Sqrt(d0 / float64(n))
	d1 = math.Sqrt(d1 / float64(n))

	h0 := 1e-6
	if d0 >= 1e-5 && d1 >= 1e-5 {
		h0 = 0.01 * d0 / d1
	}
	h0 = math.Min(h0, span)

	y1 := make(dynamo.State, n)
	for i := range y1 {
		y1[i] = y[i] + h0*f[i]
	}
	f1, err := sys.Derive(z+h0, y1)
	if err != nil {
		return 0, err
	}

	d2 := 0.0
	for i := 0; i < n; i++ {
		sc := opts.ATol + opts.RTol*math.Abs(y[i])
		d := (f1[i] - f[i]) / sc
		d2 += d * d
	}
	d2 = math.Sqrt(d2/float64(n)) / h0

	var h1 float64
	if d1 <= 1e-15 && d2 <= 1e-15 {
		h1 = math.Max(1e-6, h0*1e-3)
	} else {
		h1 = math.Pow(0.01/math.Max(d1, d2), 1.0/5.0)
	}

	return math.Min(100*h0, math.Min(h1, span)), nil
}
