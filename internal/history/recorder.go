package history

import (
	"errors"

	"github.com/wildstyl3r/remc/internal/model"
)

type Recorder interface {
	NewParticle(p *model.Particle)
	UpdateParticle(p *model.Particle)
	RemoveParticle(reason model.RemovalReason, p *model.Particle)
	Err() error
	Close() error
}

type multi []Recorder

// Multi fans every event out to each of recorders in order.
func Multi(recorders ...Recorder) Recorder {
	return multi(recorders)
}

func (m multi) NewParticle(p *model.Particle) {
	for _, r := range m {
		r.NewParticle(p)
	}
}

func (m multi) UpdateParticle(p *model.Particle) {
	for _, r := range m {
		r.UpdateParticle(p)
	}
}

func (m multi) RemoveParticle(reason model.RemovalReason, p *model.Particle) {
	for _, r := range m {
		r.RemoveParticle(reason, p)
	}
}

func (m multi) Err() error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.Err())
	}
	return errors.Join(errs...)
}

func (m multi) Close() error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.Close())
	}
	return errors.Join(errs...)
}

type discard struct{}

// Discard drops every event.
var Discard Recorder = discard{}

func (discard) NewParticle(*model.Particle)                         {}
func (discard) UpdateParticle(*model.Particle)                      {}
func (discard) RemoveParticle(model.RemovalReason, *model.Particle) {}
func (discard) Err() error                                          { return nil }
func (discard) Close() error                                        { return nil }
