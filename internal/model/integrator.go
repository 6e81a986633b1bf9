package model

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/remc/internal/utils"
)

// Integrator advances particles with an embedded Dormand–Prince 5(4) step.
// It is not safe for concurrent use: Accepted and Rejected are plain counters.
type Integrator struct {
	Safety     float64
	MaxRetries int
	MaxGrowth  float64

	Accepted int
	Rejected int
}

func NewIntegrator() *Integrator {
	return &Integrator{
		Safety:     0.9,
		MaxRetries: 100,
		MaxGrowth:  5,
	}
}

// Advance performs one accepted step of at most maxTimestep on p.
// Errors from force are returned as is.
func (in *Integrator) Advance(p *Particle, force ForceProvider, maxTimestep, tolerance float64) error {
	dt := min(p.NextTimestep, maxTimestep)
	x0, p0, t0 := p.Position, p.Momentum, p.CurrentTime

	var kx, kp [stages]r3.Vec
	kx[0] = velocity(p0)
	var err error
	if kp[0], err = force.Force(x0, p0, t0, p.Charge); err != nil {
		return err
	}

	tolerance2 := tolerance * tolerance
	for retry := 0; retry <= in.MaxRetries; retry++ {
		if !utils.IsFinite(dt) || dt <= 0 {
			return &StepError{ParticleID: p.ID, Time: t0, Timestep: dt, Retries: retry, Wrapped: ErrNonFiniteTimestep}
		}

		for s := 1; s < stages; s++ {
			xs, ps := x0, p0
			for j := range s {
				if dopriA[s][j] == 0 {
					continue
				}
				xs = r3.Add(xs, r3.Scale(dt*dopriA[s][j], kx[j]))
				ps = r3.Add(ps, r3.Scale(dt*dopriA[s][j], kp[j]))
			}
			kx[s] = velocity(ps)
			if kp[s], err = force.Force(xs, ps, t0+dopriC[s]*dt, p.Charge); err != nil {
				return err
			}
		}

		x5, p5 := combine(x0, dt, dopriB, &kx), combine(p0, dt, dopriB, &kp)
		var zero r3.Vec
		xErr, pErr := combine(zero, dt, dopriE, &kx), combine(zero, dt, dopriE, &kp)

		factor := min(
			errorFactor(tolerance2, r3.Norm2(r3.Sub(x5, x0)), r3.Norm2(xErr)),
			errorFactor(tolerance2, r3.Norm2(r3.Sub(p5, p0)), r3.Norm2(pErr)),
		)
		if factor >= 1 {
			in.Accepted++
			p.dense = denseOutput{
				valid:     true,
				startTime: t0,
				span:      dt,
				position:  x0,
				momentum:  p0,
				positionK: kx,
				momentumK: kp,
			}
			p.Position, p.Momentum = x5, p5
			p.CurrentTime = t0 + dt
			p.Timestep = dt
			p.NextTimestep = dt * min(in.Safety*math.Pow(factor, 1./8.), in.MaxGrowth)
			p.UpdateEnergy()
			return nil
		}

		in.Rejected++
		dt *= in.Safety * math.Pow(factor, 1./5.)
	}
	return &StepError{ParticleID: p.ID, Time: t0, Timestep: dt, Retries: in.MaxRetries, Wrapped: ErrRetryBudget}
}

func velocity(momentum r3.Vec) r3.Vec {
	return r3.Scale(1/Gamma(r3.Norm2(momentum)), momentum)
}

// combine returns y + h * sum(w_i * k_i); Interpolate sums in the same order.
func combine(y r3.Vec, h float64, w [stages]float64, k *[stages]r3.Vec) r3.Vec {
	for i := range stages {
		if w[i] == 0 {
			continue
		}
		y = r3.Add(y, r3.Scale(h*w[i], k[i]))
	}
	return y
}

func errorFactor(tolerance2, update2, difference2 float64) float64 {
	if difference2 == 0 {
		return math.Inf(1)
	}
	return tolerance2 * update2 / difference2
}
