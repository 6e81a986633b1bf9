package physics

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/wildstyl3r/remc/internal/model"
)

// ShieldedCoulomb is elastic scattering on screened nuclei. Each step draws a
// Poisson number of single scatterings and applies their combined deflection.
type ShieldedCoulomb struct {
	AtomicNumber float64
	MaxStep      float64

	rng *rand.Rand
}

func NewShieldedCoulomb(atomicNumber, maxStep float64, rng *rand.Rand) *ShieldedCoulomb {
	return &ShieldedCoulomb{AtomicNumber: atomicNumber, MaxStep: maxStep, rng: rng}
}

func (s *ShieldedCoulomb) MaxTimestep() float64 {
	return s.MaxStep
}

// screening returns A, where the cross section goes as (1 - beta^2 S)/(S + A)^2
// with S = sin^2(angle/2).
func (s *ShieldedCoulomb) screening(momentumSquared float64) float64 {
	return math.Pow(s.AtomicNumber, 2./3.) / (4 * 183.3 * 183.3) / momentumSquared
}

// Rate is the number of single scatterings per time unit.
func (s *ShieldedCoulomb) Rate(energy float64) float64 {
	momentumSquared := (energy+1)*(energy+1) - 1
	if momentumSquared <= 0 {
		return 0
	}
	beta := model.Beta(momentumSquared)
	betaSquared := beta * beta
	a := s.screening(momentumSquared)
	prefactor := s.AtomicNumber * s.AtomicNumber / (8 * math.Pi) / (beta * momentumSquared)
	integral := 1/(a*(1+a)) - betaSquared*(math.Log((1+a)/a)-1/(1+a))
	return prefactor * 4 * math.Pi * integral
}

func (s *ShieldedCoulomb) sampleS(a, betaSquared float64) float64 {
	for {
		u := s.rng.Float64()
		sSquared := a * u / (1 + a - u)
		if s.rng.Float64() <= 1-betaSquared*sSquared {
			return sSquared
		}
	}
}

// Scatter deflects p as if it had energy during its whole last timestep.
func (s *ShieldedCoulomb) Scatter(energy float64, p *model.Particle) error {
	rate := s.Rate(energy)
	if rate <= 0 || p.Timestep <= 0 {
		return nil
	}
	n := int(distuv.Poisson{Lambda: rate * p.Timestep, Src: s.rng}.Rand())
	if n == 0 {
		return nil
	}

	momentumSquared := (energy+1)*(energy+1) - 1
	beta := model.Beta(momentumSquared)
	betaSquared := beta * beta
	a := s.screening(momentumSquared)

	// compose deflections of a reference direction along z
	reference := model.Particle{Momentum: r3.Vec{Z: 1}}
	for range n {
		cosInclination := 1 - 2*s.sampleS(a, betaSquared)
		reference.ScatterAngle(math.Acos(cosInclination), s.rng.Float64()*2*math.Pi)
	}
	p.ScatterAngle(safeAcos(reference.Momentum.Z/r3.Norm(reference.Momentum)), s.rng.Float64()*2*math.Pi)
	return nil
}

// NoScattering leaves particles untouched and does not limit the timestep.
type NoScattering struct{}

func (NoScattering) MaxTimestep() float64 {
	return math.Inf(1)
}

func (NoScattering) Scatter(float64, *model.Particle) error {
	return nil
}
