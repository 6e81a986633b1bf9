package model

import (
	"math"
	"sync/atomic"

	"gonum.org/v1/gonum/spatial/r3"
)

var lastID atomic.Uint64

// NextID returns a fresh particle identity. Identities are never reused within a process.
func NextID() uint64 {
	return lastID.Add(1)
}

type RemovalReason int8

const (
	RemovedLowEnergy RemovalReason = iota
	RemovedOutOfBounds
	RemovedAtHorizon
)

func (r RemovalReason) String() string {
	switch r {
	case RemovedLowEnergy:
		return "low energy"
	case RemovedOutOfBounds:
		return "out of bounds"
	case RemovedAtHorizon:
		return "horizon"
	}
	return "unknown"
}

type Particle struct {
	ID     uint64
	Charge int

	Energy   float64 // kinetic, derived from Momentum by UpdateEnergy
	Position r3.Vec
	Momentum r3.Vec

	CurrentTime  float64
	Timestep     float64 // consumed by the last step
	NextTimestep float64 // forecast for the following step

	dense denseOutput
}

// denseOutput keeps the last accepted step: its starting state, its length
// and the stage derivatives of position and momentum.
type denseOutput struct {
	valid     bool
	startTime float64
	span      float64
	position  r3.Vec
	momentum  r3.Vec
	positionK [stages]r3.Vec
	momentumK [stages]r3.Vec
}

func NewParticle(charge int, energy float64, position, direction r3.Vec, time, timestep float64) *Particle {
	p := &Particle{
		ID:           NextID(),
		Charge:       charge,
		Position:     position,
		Momentum:     r3.Scale(KEToMomentum(energy)/r3.Norm(direction), direction),
		CurrentTime:  time,
		NextTimestep: timestep,
	}
	p.UpdateEnergy()
	return p
}

// Clone copies the kinematic state under a new identity.
func (p *Particle) Clone() *Particle {
	c := *p
	c.ID = NextID()
	c.dense = denseOutput{}
	return &c
}

func (p *Particle) UpdateEnergy() {
	p.Energy = MomentumSquaredToKE(p.MomentumSquared())
}

func (p *Particle) MomentumSquared() float64 {
	return r3.Norm2(p.Momentum)
}

// SetMomentumMagnitude keeps the direction; a particle at rest stays at rest.
func (p *Particle) SetMomentumMagnitude(momentum float64) {
	if norm := r3.Norm(p.Momentum); norm > 0 {
		p.Momentum = r3.Scale(momentum/norm, p.Momentum)
	}
	p.UpdateEnergy()
}

// HasDenseOutput reports whether the last step can be reconstructed.
func (p *Particle) HasDenseOutput() bool {
	return p.dense.valid
}

// Interpolate reconstructs position and momentum at fraction frac of the consumed timestep.
func (p *Particle) Interpolate(frac float64) (position, momentum r3.Vec) {
	if !p.dense.valid {
		return p.Position, p.Momentum
	}
	theta := frac * p.Timestep / p.dense.span
	weights := denseWeights(theta)
	h := p.dense.span
	position, momentum = p.dense.position, p.dense.momentum
	for i := range stages {
		if weights[i] == 0 {
			continue
		}
		position = r3.Add(position, r3.Scale(h*weights[i], p.dense.positionK[i]))
		momentum = r3.Add(momentum, r3.Scale(h*weights[i], p.dense.momentumK[i]))
	}
	return
}

// EnergyAt is the kinetic energy at fraction frac of the consumed timestep.
func (p *Particle) EnergyAt(frac float64) float64 {
	_, momentum := p.Interpolate(frac)
	return MomentumSquaredToKE(r3.Norm2(momentum))
}

// ReduceTimestepTo rolls the particle back so that it has only consumed dt
// of its last step. The dense output stays valid for the shortened step.
func (p *Particle) ReduceTimestepTo(dt float64) {
	if !p.dense.valid || dt >= p.Timestep {
		return
	}
	dt = math.Max(dt, 0)
	p.Position, p.Momentum = p.Interpolate(dt / p.Timestep)
	p.CurrentTime = p.dense.startTime + dt
	p.Timestep = dt
	p.UpdateEnergy()
}

// ScatterAngle rotates the momentum by the inclination relative to its
// current direction, with the given azimuth around it.
func (p *Particle) ScatterAngle(inclination, azimuth float64) {
	momentum := r3.Norm(p.Momentum)
	if momentum == 0 {
		return
	}
	direction := r3.Scale(1/momentum, p.Momentum)

	init := r3.Vec{X: 1}
	a := r3.Cross(init, direction)
	if r3.Norm2(a) < 0.1 {
		init = r3.Vec{Y: 1}
		a = r3.Cross(init, direction)
	}
	a = r3.Unit(a)
	b := r3.Cross(direction, a)

	sinInc, cosInc := math.Sincos(inclination)
	sinAz, cosAz := math.Sincos(azimuth)
	newDirection := r3.Add(
		r3.Scale(cosInc, direction),
		r3.Add(r3.Scale(sinInc*cosAz, a), r3.Scale(sinInc*sinAz, b)),
	)
	p.Momentum = r3.Scale(momentum, newDirection)
}
