package sim

import (
	"errors"
	"fmt"
)

var (
	ErrHalvingBudget = errors.New("timestep halving budget exhausted")
	ErrInvalidOption = errors.New("invalid driver option")
)

// RunError is a fatal failure of a run while advancing one particle.
type RunError struct {
	ParticleID uint64
	Time       float64
	Iteration  int
	Wrapped    error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("iteration %d, particle %d at t=%g: %v", e.Iteration, e.ParticleID, e.Time, e.Wrapped)
}

func (e *RunError) Unwrap() error {
	return e.Wrapped
}
