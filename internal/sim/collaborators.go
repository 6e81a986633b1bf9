package sim

import (
	"math"

	"github.com/wildstyl3r/remc/internal/interaction"
	"github.com/wildstyl3r/remc/internal/model"
)

// ElasticModel deflects a particle after its step. energy is the kinetic
// energy at the end of the integrated step, before any inelastic interaction.
type ElasticModel interface {
	Scatter(energy float64, p *model.Particle) error
	MaxTimestep() float64
}

// InelasticModel changes the particle in place and may produce a secondary.
type InelasticModel interface {
	Interact(energy float64, p *model.Particle) (*model.Particle, error)
}

// Recorder receives particle lifecycle events. Write errors are kept by the
// recorder and reported through Err.
type Recorder interface {
	NewParticle(p *model.Particle)
	UpdateParticle(p *model.Particle)
	RemoveParticle(reason model.RemovalReason, p *model.Particle)
	Err() error
}

type FluxAccumulator interface {
	AddParticle(p *model.Particle)
	RemoveParticle(p *model.Particle)
}

// Channel pairs an interaction rate with the model applied when it fires.
type Channel struct {
	Rate  interaction.Candidate
	Model InelasticModel
}

type noElastic struct{}

func (noElastic) Scatter(float64, *model.Particle) error { return nil }
func (noElastic) MaxTimestep() float64                   { return math.Inf(1) }

type noFlux struct{}

func (noFlux) AddParticle(*model.Particle)    {}
func (noFlux) RemoveParticle(*model.Particle) {}
