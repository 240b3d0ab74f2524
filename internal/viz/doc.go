// Package viz renders a running drift in the terminal.
//
// The live view is a Bubble Tea program fed by a channel of snapshots:
//
//   - [Model]: phase space on a braille [Canvas] next to the spread history
//   - [RunLive]: runs an experiment in the background and drives the model
//   - Theme selection with 4 built-in color schemes
//
// # Key Bindings
//
//	[ ]   - Step back/forward through recorded snapshots
//	End   - Return to the newest snapshot
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Stop the drift and quit
package viz
