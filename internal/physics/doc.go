// Package physics turns a drift configuration into numbers and equations.
//
// [NewParams] derives every constant once: wavenumber, density, macro-particle
// charge, R56 and the scales that couple field and energy. [Initializer]
// draws the modulated, compressed starting ensemble. [LSC] is the collective
// vector field
//
//	dη/dz   = K_eta · E(pos)
//	dpos/dz = K_drift · η
//
// where E comes from a field solver. Positions inside the state are never
// wrapped; the solver reduces them into one period when it evaluates E.
package physics
