package interaction

import (
	"fmt"
	"math"

	"github.com/wildstyl3r/remc/internal/physics"
)

type Kind int

const (
	KindConstant Kind = iota
	KindPowerLaw
	KindMoller
	KindCollisions
)

func (k Kind) String() string {
	switch k {
	case KindConstant:
		return "constant"
	case KindPowerLaw:
		return "power law"
	case KindMoller:
		return "moller"
	case KindCollisions:
		return "collisions"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Candidate is one interaction type: a rate in interactions per time unit as a
// function of kinetic energy. Only the fields of its Kind are used.
type Candidate struct {
	Kind Kind
	Name string

	Coefficient float64 // constant rate, or power law prefactor
	Exponent    float64 // power law: Coefficient * energy^Exponent

	Moller     *physics.Moller
	Collisions *physics.CollisionChannel
}

func Constant(name string, rate float64) Candidate {
	return Candidate{Kind: KindConstant, Name: name, Coefficient: rate}
}

func PowerLaw(name string, coefficient, exponent float64) Candidate {
	return Candidate{Kind: KindPowerLaw, Name: name, Coefficient: coefficient, Exponent: exponent}
}

func MollerRate(m *physics.Moller) Candidate {
	return Candidate{Kind: KindMoller, Name: "moller", Moller: m}
}

func CollisionRate(c *physics.CollisionChannel) Candidate {
	return Candidate{Kind: KindCollisions, Name: c.Name(), Collisions: c}
}

func (c *Candidate) Rate(energy float64) (float64, error) {
	switch c.Kind {
	case KindConstant:
		return c.Coefficient, nil
	case KindPowerLaw:
		return c.Coefficient * math.Pow(energy, c.Exponent), nil
	case KindMoller:
		return c.Moller.Rate(energy), nil
	case KindCollisions:
		return c.Collisions.Rate(energy), nil
	}
	return 0, fmt.Errorf("candidate %q: unknown rate kind %v", c.Name, c.Kind)
}
