package constants

const KBolzmann float64 = 1.380649e-23
const ElectronCharge = 1.602176634e-19                   // C
const ElectornMass float64 = 9.1093837139e-31            // [kg]
const SpeedOfLight float64 = 299792458.                  // [m/s]
const FreeSpacePermittivityE0 float64 = 8.8541878188e-12 // [m^-3 kg^{-1} s^4 A^2]
const ClassicalElectronRadius float64 = 2.8179403262e-15 // [m]
const Quantile95 = 1.96

// average over N2/O2
const AverageAirAtomicNumber float64 = 14.5
const AirMassDensity float64 = 1.205e-3      // [g / cm^3]
const AirMolecularDensity float64 = 2.688e25 // [m^-3]

// Dimensionless system: time in units of TimeUnits, distance in c*TimeUnits,
// energy in m_e c^2 and momentum in m_e c.
const (
	TimeUnits      float64 = 172e-9                                         // [s], 1/(2 pi r_e^2 Z N_air c)
	DistanceUnits  float64 = SpeedOfLight * TimeUnits                       // [m]
	EnergyUnits    float64 = ElectornMass * SpeedOfLight * SpeedOfLight     // [J]
	EnergyUnitsKeV float64 = EnergyUnits / ElectronCharge / 1000.           // [keV]
	EnergyUnitsEV  float64 = EnergyUnits / ElectronCharge                   // [eV]
	MomentumUnits  float64 = ElectornMass * SpeedOfLight                    // [kg m/s]
	EFieldUnits    float64 = EnergyUnits / (ElectronCharge * DistanceUnits) // [V/m]
	BFieldUnits    float64 = EFieldUnits / SpeedOfLight                     // [T]
)
