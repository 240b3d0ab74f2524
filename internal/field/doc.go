// Package field computes the longitudinal space-charge field of a
// periodic particle distribution.
//
// Two interchangeable solvers implement [Solver]:
//
//   - [Harmonic]: truncated Fourier summation over phase. The bunching
//     spectrum b_n = <cos nθ> is computed first ([BunchingSpectrum]) and
//     the field is synthesized from it ([Synthesize]).
//   - [Grid]: charge deposition on a uniform grid over one period, a
//     Fourier-space Poisson solve and interpolation back to particles.
//
// Both wrap positions into one period on entry and never modify the
// caller's slice.
package field
