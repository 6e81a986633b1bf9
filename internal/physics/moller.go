package physics

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/wildstyl3r/remc/internal/model"
	"github.com/wildstyl3r/remc/internal/utils"
)

// Moller is electron-electron scattering that frees secondaries with at least
// MinEnergy. Energies are in m_e c^2, rates per time unit.
type Moller struct {
	MinEnergy float64

	rng *rand.Rand
}

func NewMoller(minEnergy float64, rng *rand.Rand) *Moller {
	return &Moller{MinEnergy: minEnergy, rng: rng}
}

// LowestEnergy is the smallest primary energy that can free a secondary.
func (m *Moller) LowestEnergy() float64 {
	return 2 * m.MinEnergy
}

// CrossSection is the differential rate in production energy.
func (m *Moller) CrossSection(energy, production float64) float64 {
	gamma := energy + 1
	beta := model.KEToBeta(energy)
	shared := production * (energy - production)
	term := energy / shared
	return (term*term - (2*(gamma*gamma+gamma)-1)/(shared*gamma*gamma) + 1/(gamma*gamma)) / beta
}

// cumulative rate from MinEnergy up to production, without the 1/beta factor
func (m *Moller) cumulative(energy, production float64) float64 {
	gamma := energy + 1
	gammaSquared := gamma * gamma
	antiderivative := func(e float64) float64 {
		return -1/e + 1/(energy-e) +
			(1-2*gamma)/(gammaSquared*energy)*math.Log(e/(energy-e)) +
			e/gammaSquared
	}
	return antiderivative(production) - antiderivative(m.MinEnergy)
}

func (m *Moller) Rate(energy float64) float64 {
	if energy <= m.LowestEnergy() {
		return 0
	}
	return m.cumulative(energy, energy/2) / model.KEToBeta(energy)
}

// SampleProductionEnergy draws the energy of the freed electron.
func (m *Moller) SampleProductionEnergy(energy float64) (float64, error) {
	total := m.cumulative(energy, energy/2)
	target := m.rng.Float64() * total
	production, err := utils.Brent(func(e float64) float64 {
		return m.cumulative(energy, e) - target
	}, m.MinEnergy, energy/2, 1e-12*energy, 1e-10, 100)
	if err != nil {
		return 0, fmt.Errorf("moller production energy at %g: %w", energy, err)
	}
	return production, nil
}

// Interact scatters the primary and returns the freed secondary, or nil when
// energy is below LowestEnergy.
func (m *Moller) Interact(energy float64, p *model.Particle) (*model.Particle, error) {
	if energy <= m.LowestEnergy() {
		return nil, nil
	}
	production, err := m.SampleProductionEnergy(energy)
	if err != nil {
		return nil, err
	}
	remaining := energy - production

	momentum := model.KEToMomentum(energy)
	productionMomentum := model.KEToMomentum(production)
	remainingMomentum := model.KEToMomentum(remaining)

	primaryInclination := safeAcos(((energy+1)*(remaining+1) - (production + 1)) / (momentum * remainingMomentum))
	secondaryInclination := safeAcos(((energy+1)*(production+1) - (remaining + 1)) / (momentum * productionMomentum))
	azimuth := m.rng.Float64() * 2 * math.Pi

	secondary := p.Clone()
	secondary.Charge = -1
	if p.Timestep > 0 {
		secondary.NextTimestep = p.Timestep
	}
	secondary.SetMomentumMagnitude(productionMomentum)
	secondary.ScatterAngle(secondaryInclination, azimuth+math.Pi)

	p.SetMomentumMagnitude(remainingMomentum)
	p.ScatterAngle(primaryInclination, azimuth)
	return secondary, nil
}

func safeAcos(x float64) float64 {
	return math.Acos(max(-1, min(1, x)))
}
