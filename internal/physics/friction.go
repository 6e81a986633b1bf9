package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/wildstyl3r/remc/internal/constants"
	"github.com/wildstyl3r/remc/internal/utils"
)

var ErrOutOfTable = errors.New("value outside of table range")

// ESTAR electron stopping power in air
var (
	estarEnergy = []float64{ // [keV]
		10.1297991429, 12.5, 15.0, 17.5, 20.0, 25.0, 30.0, 35.0, 40.0, 45.0, 50.0, 55.0,
		60.0, 70.0, 80.0, 90.0, 100, 125, 150, 175, 200, 250, 300, 350, 400, 450, 500,
		550, 600, 700, 800, 900, 1000, 1250, 1500, 1750, 2000, 2500, 3000, 3500,
		4000, 4500, 5000, 5500, 6000, 7000, 8000, 9000, 10000, 12500, 15000, 17500,
		20000, 25000, 30000, 35000,
	}
	estarStoppingPower = []float64{ // [MeV cm^2 / g]
		19.0079398282, 16.63, 14.45, 12.83, 11.57, 9.753, 8.492, 7.563, 6.848,
		6.281, 5.819, 5.435, 5.111, 4.593, 4.198, 3.886, 3.633, 3.172, 2.861, 2.637,
		2.470, 2.236, 2.084, 1.978, 1.902, 1.845, 1.802, 1.769, 1.743, 1.706, 1.683,
		1.669, 1.661, 1.655, 1.661, 1.672, 1.684, 1.712, 1.740, 1.766, 1.790, 1.812,
		1.833, 1.852, 1.870, 1.902, 1.931, 1.956, 1.979, 2.029, 2.069, 2.104, 2.134,
		2.185, 2.226, 2.257,
	}
)

// 1/I^2 with I the mean excitation energy of air, in (m_e c^2)^-2
const inverseISquared = constants.EnergyUnitsEV * constants.EnergyUnitsEV / (85.7 * 80.5)

// FrictionTable gives the ionization energy loss per unit length, keyed by
// momentum squared. Points are joined by power laws; above the table the
// Bethe formula is used and below it the first power law is extended.
type FrictionTable struct {
	momentumSquared []float64
	powers          []float64
	factors         []float64

	// Moller losses above 2*removalEnergy are handled explicitly and subtracted; 0 disables
	removalEnergy float64
}

// DefaultFrictionTable is the ESTAR air table.
func DefaultFrictionTable(removalEnergy float64) (*FrictionTable, error) {
	return NewFrictionTable(estarEnergy, estarStoppingPower, removalEnergy)
}

// LoadFrictionTable reads "energy[keV] stopping power[MeV cm^2/g]" rows.
func LoadFrictionTable(path string, removalEnergy float64) (*FrictionTable, error) {
	rows, err := utils.ReadFloatPairs(path)
	if err != nil {
		return nil, fmt.Errorf("friction table %s: %w", path, err)
	}
	energies := make([]float64, len(rows))
	stoppingPower := make([]float64, len(rows))
	for i := range rows {
		energies[i], stoppingPower[i] = rows[i][0], rows[i][1]
	}
	return NewFrictionTable(energies, stoppingPower, removalEnergy)
}

func NewFrictionTable(energiesKeV, stoppingPower []float64, removalEnergy float64) (*FrictionTable, error) {
	if len(energiesKeV) < 2 || len(energiesKeV) != len(stoppingPower) {
		return nil, fmt.Errorf("friction table needs at least two matching rows, got %d energies and %d values", len(energiesKeV), len(stoppingPower))
	}
	// [MeV cm^2/g] -> [m_e c^2 per distance unit]
	conversion := constants.ElectronCharge * 1e8 * constants.AirMassDensity * constants.DistanceUnits / constants.EnergyUnits

	t := &FrictionTable{
		momentumSquared: make([]float64, len(energiesKeV)),
		powers:          make([]float64, len(energiesKeV)-1),
		factors:         make([]float64, len(energiesKeV)-1),
		removalEnergy:   removalEnergy,
	}
	values := make([]float64, len(energiesKeV))
	for i := range energiesKeV {
		gamma := 1 + utils.KeV2Dimensionless(energiesKeV[i])
		t.momentumSquared[i] = gamma*gamma - 1
		values[i] = stoppingPower[i] * conversion
		if i > 0 && t.momentumSquared[i] <= t.momentumSquared[i-1] {
			return nil, fmt.Errorf("friction table energies must increase, row %d: %g keV", i, energiesKeV[i])
		}
		if values[i] <= 0 {
			return nil, fmt.Errorf("friction table row %d: stopping power must be positive", i)
		}
	}
	for i := range t.powers {
		t.powers[i] = math.Log(values[i+1]/values[i]) / math.Log(t.momentumSquared[i+1]/t.momentumSquared[i])
		t.factors[i] = values[i] / math.Pow(t.momentumSquared[i], t.powers[i])
	}
	return t, nil
}

func (t *FrictionTable) Lookup(momentumSquared float64) (float64, error) {
	if math.IsNaN(momentumSquared) || momentumSquared < 0 || math.IsInf(momentumSquared, 0) {
		return 0, fmt.Errorf("friction at momentum squared %g: %w", momentumSquared, ErrOutOfTable)
	}
	last := len(t.momentumSquared) - 1
	if momentumSquared > t.momentumSquared[last] {
		if t.removalEnergy > 0 {
			return betheSubtractMoller(momentumSquared, t.removalEnergy), nil
		}
		return betheFormula(momentumSquared), nil
	}

	i := 0
	if momentumSquared >= t.momentumSquared[0] {
		i = utils.SearchSorted(t.momentumSquared, momentumSquared)
	}
	friction := t.factors[i] * math.Pow(momentumSquared, t.powers[i])
	if t.removalEnergy > 0 {
		if gamma := 2*t.removalEnergy + 1; momentumSquared > gamma*gamma-1 {
			friction -= mollerLosses(momentumSquared, t.removalEnergy)
		}
	}
	return friction, nil
}

func betheFormula(momentumSquared float64) float64 {
	gammaSquared := 1 + momentumSquared
	gamma := math.Sqrt(gammaSquared)
	betaSquared := momentumSquared / gammaSquared
	energy := gamma - 1

	logTerm := math.Log(betaSquared * energy * gammaSquared * inverseISquared)
	factor := 1 + 2/gamma - 1/gammaSquared
	last := energy*energy/(8*gammaSquared) + 1/gammaSquared
	return (logTerm - factor*math.Ln2 + last) / betaSquared
}

// energy lost to Moller collisions that free electrons above minEnergy
func mollerLosses(momentumSquared, minEnergy float64) float64 {
	gammaSquared := 1 + momentumSquared
	gamma := math.Sqrt(gammaSquared)
	betaSquared := momentumSquared / gammaSquared
	energy := gamma - 1

	return (math.Log(energy/(2*minEnergy)) -
		minEnergy/(energy-minEnergy) -
		(1+2/gamma-1/gammaSquared)*math.Log(2*(energy-minEnergy)/energy) +
		energy*energy/(8*gammaSquared) -
		minEnergy*minEnergy/(2*gammaSquared) + 1) / betaSquared
}

func betheSubtractMoller(momentumSquared, minEnergy float64) float64 {
	gammaSquared := 1 + momentumSquared
	gamma := math.Sqrt(gammaSquared)
	betaSquared := momentumSquared / gammaSquared
	energy := gamma - 1

	logTerm := math.Log(2 * minEnergy * betaSquared * gammaSquared * inverseISquared)
	factor := 1 + 2/gamma - 1/gammaSquared
	return (logTerm - factor*math.Log(energy/(energy-minEnergy)) + minEnergy/(energy-minEnergy) - betaSquared + minEnergy*minEnergy/(2*gammaSquared)) / betaSquared
}
