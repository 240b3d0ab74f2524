// Package analysis extracts diagnostics from a drift trajectory.
//
// The package includes:
//
//   - [EnergySpread]: projected energy spread per snapshot, normalized by σ_η0
//   - [Bunching]: bunching factor magnitudes |b_n| of one snapshot
//   - [Profile]: density and field of one snapshot on a uniform grid, with
//     the field recomputed by the same solver used during the drift
//   - [PowerSpectrum]: power spectrum of a density profile
//   - [NewPhasePortrait]: longitudinal phase space (position, η) of a snapshot
//
// # Spread growth
//
// Microbunching shows up as growth of the projected spread along the drift:
//
//	spread, err := analysis.EnergySpread(traj, params.SigmaEta)
//	growth := spread[len(spread)-1] / spread[0]
package analysis
