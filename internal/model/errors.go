package model

import (
	"errors"
	"fmt"
)

var (
	ErrNonFiniteTimestep = errors.New("timestep is not a finite positive number")
	ErrRetryBudget       = errors.New("step retry budget exhausted")
)

// StepError is a fatal integration failure of one particle.
type StepError struct {
	ParticleID uint64
	Time       float64
	Timestep   float64
	Retries    int
	Wrapped    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("particle %d at t=%g (dt=%g, %d retries): %v", e.ParticleID, e.Time, e.Timestep, e.Retries, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
