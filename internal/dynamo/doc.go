// Package dynamo provides the core simulation primitives shared by the
// longitudinal space-charge drift simulation.
//
// The package defines the contracts every other package is written against:
//
//   - [State]: flat ODE state vector, two contiguous blocks [pos | eta]
//   - [Ensemble]: structured, index-aligned view of a [State]
//   - [System]: ODE right-hand side, dX/dz = f(z, X)
//   - [Engine]: numerical integrator solving a [System] over a span
//   - [Trajectory]: snapshots of the ensemble on an evaluation grid
//
// # Layout
//
// A state for N particles has length 2N. Positions (or phases) occupy
// x[0:N] and relative energy deviations occupy x[N:2N]. Particle i is
// x[i] and x[N+i] for the whole run; nothing reorders the blocks.
//
//	ens, _ := dynamo.View(x)
//	ens.Pos[i], ens.Eta[i] // same particle
//
// # Wrapping
//
// Positions inside a [State] are never reduced modulo the period. Use
// [Wrap] or [Ensemble.Wrapped] when querying a field solver or reporting.
package dynamo
