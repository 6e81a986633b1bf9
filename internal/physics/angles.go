package physics

import (
	"math"
	"math/rand/v2"
)

// ScatteringFunction samples the cosine of the deflection angle of a collision
// in which energy [eV] drops to energyAfter by energyLoss.
type ScatteringFunction func(rng *rand.Rand, energy, energyAfter, energyLoss float64) (cos float64)

func Isotropic(rng *rand.Rand, energy, energyAfter, energyLoss float64) float64 {
	return 1. - 2.*rng.Float64()
}

func Surendra(rng *rand.Rand, energy, energyAfter, energyLoss float64) float64 {
	return (2. + energy - 2.*math.Pow(1.+energy, rng.Float64())) / energy
}

func BornDipole(rng *rand.Rand, energy, energyAfter, energyLoss float64) float64 {
	if energyLoss <= 0 {
		return 1
	}
	energyRatioSquare := energyLoss * energyLoss / math.Pow(math.Sqrt(energyAfter)+math.Sqrt(energy), 4)
	return 1. + 2.*energyRatioSquare/(1.-energyRatioSquare)*(1.-math.Pow(energyRatioSquare, -rng.Float64()))
}

var ScatteringFunctions = map[string]ScatteringFunction{
	"isotropic":   Isotropic,
	"surendra":    Surendra,
	"born-dipole": BornDipole,
}
