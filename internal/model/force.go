package model

import (
	"gonum.org/v1/gonum/spatial/r3"
)

type ForceProvider interface {
	Force(position, momentum r3.Vec, time float64, charge int) (r3.Vec, error)
}

type VectorField interface {
	At(position r3.Vec, time float64) r3.Vec
}

// FrictionLookup gives the magnitude of the ionization friction for a momentum squared.
type FrictionLookup interface {
	Lookup(momentumSquared float64) (float64, error)
}

// LorentzForce is q(E + v x B) plus friction opposing the momentum.
// Nil fields contribute nothing.
type LorentzForce struct {
	E             VectorField
	B             VectorField
	Friction      FrictionLookup
	FrictionScale float64
}

func (l *LorentzForce) Force(position, momentum r3.Vec, time float64, charge int) (r3.Vec, error) {
	var force r3.Vec
	q := float64(charge)
	if l.E != nil {
		force = r3.Scale(q, l.E.At(position, time))
	}
	momentumSquared := r3.Norm2(momentum)
	if l.B != nil {
		inverseGamma := 1 / Gamma(momentumSquared)
		force = r3.Add(force, r3.Scale(q*inverseGamma, r3.Cross(momentum, l.B.At(position, time))))
	}
	if l.Friction != nil && momentumSquared > 0 {
		friction, err := l.Friction.Lookup(momentumSquared)
		if err != nil {
			return r3.Vec{}, err
		}
		friction *= l.FrictionScale
		if friction > 0 {
			force = r3.Sub(force, r3.Scale(friction/r3.Norm(momentum), momentum))
		}
	}
	return force, nil
}
