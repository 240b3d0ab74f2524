package physics

// CODATA 2018 values, SI units.
const (
	ElementaryCharge   = 1.602176634e-19  // C
	SpeedOfLight       = 299792458.0      // m/s
	VacuumPermittivity = 8.8541878128e-12 // F/m
	// ElectronRestEnergy is m_e c² / e, i.e. the rest energy in volts.
	ElectronRestEnergy = 0.51099895000e6 // V
)
