package model

import "math"

// All quantities are dimensionless: energy in m_e c^2, momentum in m_e c.

func KEToMomentum(energy float64) float64 {
	return math.Sqrt((1+energy)*(1+energy) - 1)
}

func MomentumSquaredToKE(momentumSquared float64) float64 {
	return math.Sqrt(momentumSquared+1) - 1
}

func Gamma(momentumSquared float64) float64 {
	return math.Sqrt(1 + momentumSquared)
}

func Beta(momentumSquared float64) float64 {
	return math.Sqrt(momentumSquared / (1 + momentumSquared))
}

func KEToBeta(energy float64) float64 {
	gamma := 1 + energy
	return math.Sqrt(1 - 1/(gamma*gamma))
}
