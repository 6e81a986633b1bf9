package physics

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/wildstyl3r/lxgata"

	"github.com/wildstyl3r/remc/internal/constants"
	"github.com/wildstyl3r/remc/internal/model"
	"github.com/wildstyl3r/remc/internal/utils"
)

// CollisionChannel turns LXCat cross sections of a gas into an interaction:
// its rate is N*sigma(E)*v and its outcome follows the selected process.
type CollisionChannel struct {
	collisions    lxgata.Collisions
	kinds         []lxgata.CollisionType
	gasDensity    float64 // [m^-3]
	removalEnergy float64 // secondaries below are not produced

	Scattering ScatteringFunction

	rng *rand.Rand
}

func NewCollisionChannel(all lxgata.Collisions, kinds []lxgata.CollisionType, gasDensity, removalEnergy float64, rng *rand.Rand) (*CollisionChannel, error) {
	c := &CollisionChannel{
		kinds:         kinds,
		gasDensity:    gasDensity,
		removalEnergy: removalEnergy,
		Scattering:    BornDipole,
		rng:           rng,
	}
	for i := range all {
		if len(kinds) == 0 || slices.Contains(kinds, all[i].Type) {
			c.collisions = append(c.collisions, all[i])
		}
	}
	if len(c.collisions) == 0 {
		return nil, fmt.Errorf("no cross sections of kinds %v", kinds)
	}
	return c, nil
}

var collisionKinds = []lxgata.CollisionType{
	lxgata.IONIZATION,
	lxgata.EXCITATION,
	lxgata.ELASTIC,
	lxgata.EFFECTIVE,
	lxgata.ATTACHMENT,
	lxgata.ROTATION,
}

// ParseCollisionKinds maps process names, in any case, to LXCat collision types.
func ParseCollisionKinds(names []string) ([]lxgata.CollisionType, error) {
	kinds := make([]lxgata.CollisionType, 0, len(names))
	for _, name := range names {
		i := slices.IndexFunc(collisionKinds, func(kind lxgata.CollisionType) bool {
			return strings.EqualFold(string(kind), name)
		})
		if i < 0 {
			return nil, fmt.Errorf("unknown collision kind %q", name)
		}
		kinds = append(kinds, collisionKinds[i])
	}
	return kinds, nil
}

func (c *CollisionChannel) Name() string {
	if len(c.kinds) == 0 {
		return "collisions"
	}
	names := make([]string, len(c.kinds))
	for i := range c.kinds {
		names[i] = strings.ToLower(string(c.kinds[i]))
	}
	return strings.Join(names, "+")
}

// Rate is in collisions per time unit for a kinetic energy in m_e c^2.
func (c *CollisionChannel) Rate(energy float64) float64 {
	if energy <= 0 {
		return 0
	}
	crossSection := c.collisions.TotalCrossSectionAt(energy * constants.EnergyUnitsEV)
	return c.gasDensity * crossSection * model.KEToBeta(energy) * constants.SpeedOfLight * constants.TimeUnits
}

func (c *CollisionChannel) selectCollision(energyEV float64) *lxgata.Collision {
	crossSections := c.collisions.CrossSectionsAt(energyEV)
	choice := c.rng.Float64() * utils.SumSlice(crossSections)
	var accumulated float64
	for i := range c.collisions {
		accumulated += crossSections[i]
		if choice < accumulated {
			return &c.collisions[i]
		}
	}
	return nil
}

// Interact applies one collision at energy to p. Ionization returns the ejected electron.
func (c *CollisionChannel) Interact(energy float64, p *model.Particle) (*model.Particle, error) {
	energyEV := energy * constants.EnergyUnitsEV
	collision := c.selectCollision(energyEV)
	if collision == nil {
		return nil, nil
	}

	phi := 2. * math.Pi * c.rng.Float64()
	var secondary *model.Particle
	var cosChiScattered, eScattered float64
	switch collision.Type {
	case lxgata.ELASTIC, lxgata.EFFECTIVE:
		cosChiScattered = Surendra(c.rng, energyEV, energyEV, 0)
		eScattered = energyEV * (1. - 2.*collision.MassRatio*(1.-cosChiScattered))

	case lxgata.ATTACHMENT:
		p.SetMomentumMagnitude(0)
		return nil, nil

	case lxgata.IONIZATION:
		available := energyEV - collision.Threshold
		if available <= 0 {
			return nil, nil
		}
		ejected := available * c.rng.Float64()
		eScattered = available - ejected
		cosChiScattered = math.Sqrt(eScattered / available)
		if ejected/constants.EnergyUnitsEV >= c.removalEnergy {
			secondary = p.Clone()
			secondary.Charge = -1
			if p.Timestep > 0 {
				secondary.NextTimestep = p.Timestep
			}
			secondary.SetMomentumMagnitude(model.KEToMomentum(ejected / constants.EnergyUnitsEV))
			secondary.ScatterAngle(math.Acos(math.Sqrt(ejected/available)), phi+math.Pi)
		}

	default:
		eScattered = max(energyEV-collision.Threshold, 0)
		cosChiScattered = c.Scattering(c.rng, energyEV, eScattered, collision.Threshold)
	}

	if eScattered <= 0 {
		p.SetMomentumMagnitude(0)
		return secondary, nil
	}
	p.SetMomentumMagnitude(model.KEToMomentum(eScattered / constants.EnergyUnitsEV))
	p.ScatterAngle(safeAcos(cosChiScattered), phi)
	return secondary, nil
}
