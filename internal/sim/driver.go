package sim

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/remc/internal/history"
	"github.com/wildstyl3r/remc/internal/interaction"
	"github.com/wildstyl3r/remc/internal/model"
	"github.com/wildstyl3r/remc/internal/timetree"
	"github.com/wildstyl3r/remc/internal/utils"
)

type State int

const (
	Running State = iota
	Draining
	Done
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Done:
		return "done"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Options struct {
	Horizon       float64
	RemovalEnergy float64
	Tolerance     float64
	MaxHalvings   int
	MaxIterations int     // 0 is unbounded
	MaxDistance   float64 // particles farther from the origin are removed; 0 is unbounded

	Logger *slog.Logger
}

func DefaultOptions(horizon float64) Options {
	return Options{
		Horizon:     horizon,
		Tolerance:   1e-3,
		MaxHalvings: 60,
	}
}

// Collaborators are the physics plugged into a Driver. Only Force is required.
type Collaborators struct {
	Force      model.ForceProvider
	Elastic    ElasticModel
	Channels   []Channel
	Integrator *model.Integrator
	Sampler    *interaction.Sampler
	Recorder   Recorder
	Flux       FluxAccumulator
}

type Stats struct {
	Iterations       int
	Seeded           int
	Secondaries      int
	Interactions     map[string]int
	RemovedLowEnergy int
	RemovedOutside   int
	RemovedAtHorizon int
	Redos            int
	ShrinkNext       int
	MaxHalvingsUsed  int
}

func (s Stats) Removed() int {
	return s.RemovedLowEnergy + s.RemovedOutside + s.RemovedAtHorizon
}

// Driver advances a population of particles, always the earliest one first,
// until the horizon is reached or no particle is left.
type Driver struct {
	Options
	Collaborators

	candidates []interaction.Candidate
	particles  *timetree.Tree[*model.Particle]
	state      State
	stats      Stats
	logger     *slog.Logger
}

func NewDriver(opts Options, c Collaborators) (*Driver, error) {
	switch {
	case !utils.IsFinite(opts.Horizon) || opts.Horizon <= 0:
		return nil, fmt.Errorf("%w: horizon %g", ErrInvalidOption, opts.Horizon)
	case !(opts.Tolerance > 0):
		return nil, fmt.Errorf("%w: tolerance %g", ErrInvalidOption, opts.Tolerance)
	case opts.MaxHalvings < 0 || opts.MaxIterations < 0 || opts.MaxDistance < 0:
		return nil, fmt.Errorf("%w: negative limit", ErrInvalidOption)
	case c.Force == nil:
		return nil, fmt.Errorf("%w: no force provider", ErrInvalidOption)
	case c.Sampler == nil && len(c.Channels) > 0:
		return nil, fmt.Errorf("%w: interaction channels without a sampler", ErrInvalidOption)
	}
	if c.Elastic == nil {
		c.Elastic = noElastic{}
	}
	if c.Integrator == nil {
		c.Integrator = model.NewIntegrator()
	}
	if c.Recorder == nil {
		c.Recorder = history.Discard
	}
	if c.Flux == nil {
		c.Flux = noFlux{}
	}

	d := &Driver{
		Options:       opts,
		Collaborators: c,
		particles:     timetree.New[*model.Particle](),
		stats:         Stats{Interactions: map[string]int{}},
		logger:        opts.Logger,
	}
	if d.logger == nil {
		d.logger = slog.Default().With(slog.String("component", "sim"))
	}
	for i := range c.Channels {
		if c.Channels[i].Model == nil {
			return nil, fmt.Errorf("%w: channel %q has no model", ErrInvalidOption, c.Channels[i].Rate.Name)
		}
		d.candidates = append(d.candidates, c.Channels[i].Rate)
	}
	return d, nil
}

func (d *Driver) State() State {
	return d.state
}

func (d *Driver) Stats() Stats {
	return d.stats
}

// Len is the number of particles waiting to be advanced.
func (d *Driver) Len() int {
	return d.particles.Len()
}

// Seed adds a primary particle. Seeding is only possible while running.
func (d *Driver) Seed(p *model.Particle) error {
	if d.state != Running {
		return fmt.Errorf("cannot seed a %s driver", d.state)
	}
	if err := d.insert(p); err != nil {
		return err
	}
	d.stats.Seeded++
	return nil
}

func (d *Driver) insert(p *model.Particle) error {
	if err := d.particles.Insert(p.CurrentTime, p); err != nil {
		return fmt.Errorf("particle %d: %w", p.ID, err)
	}
	d.Recorder.NewParticle(p)
	d.Flux.AddParticle(p)
	return nil
}

func (d *Driver) remove(reason model.RemovalReason, p *model.Particle) {
	d.Recorder.RemoveParticle(reason, p)
	d.Flux.RemoveParticle(p)
	switch reason {
	case model.RemovedLowEnergy:
		d.stats.RemovedLowEnergy++
	case model.RemovedOutOfBounds:
		d.stats.RemovedOutside++
	case model.RemovedAtHorizon:
		d.stats.RemovedAtHorizon++
	}
}

// Run steps until the driver is done and then reports recorder failures.
func (d *Driver) Run() error {
	if d.state == Running {
		d.logger.Info("run started", slog.Int("particles", d.particles.Len()), slog.Float64("horizon", d.Horizon))
	}
	for d.state != Done {
		if _, err := d.Step(); err != nil {
			return err
		}
	}
	if err := d.Recorder.Err(); err != nil {
		return fmt.Errorf("history: %w", err)
	}
	return nil
}

// Step performs one iteration of the state machine and returns the new state.
func (d *Driver) Step() (State, error) {
	switch d.state {
	case Running:
		if err := d.advanceNext(); err != nil {
			d.abort()
			return d.state, err
		}
	case Draining:
		d.particles.Clear(func(_ float64, p *model.Particle) {
			d.remove(model.RemovedAtHorizon, p)
		})
		d.finish()
	}
	return d.state, nil
}

func (d *Driver) startDraining(reason string) {
	d.state = Draining
	d.logger.Info("draining", slog.String("reason", reason), slog.Int("iteration", d.stats.Iterations), slog.Int("left", d.particles.Len()))
}

func (d *Driver) finish() {
	d.state = Done
	d.logger.Info("run finished",
		slog.Int("iterations", d.stats.Iterations),
		slog.Int("seeded", d.stats.Seeded),
		slog.Int("secondaries", d.stats.Secondaries),
		slog.Any("interactions", d.stats.Interactions),
		slog.Int("removedLowEnergy", d.stats.RemovedLowEnergy),
		slog.Int("removedOutside", d.stats.RemovedOutside),
		slog.Int("removedAtHorizon", d.stats.RemovedAtHorizon),
		slog.Int("redos", d.stats.Redos),
		slog.Int("accepted", d.Integrator.Accepted),
		slog.Int("rejected", d.Integrator.Rejected),
	)
}

// abort drops every pending particle without reporting it.
func (d *Driver) abort() {
	d.particles.Clear(nil)
	d.state = Done
}

func (d *Driver) fail(p *model.Particle, err error) error {
	return &RunError{ParticleID: p.ID, Time: p.CurrentTime, Iteration: d.stats.Iterations, Wrapped: err}
}

func (d *Driver) advanceNext() error {
	if d.MaxIterations > 0 && d.stats.Iterations >= d.MaxIterations {
		d.startDraining("iteration limit")
		return nil
	}
	_, p, ok := d.particles.ExtractMin()
	if !ok {
		d.finish()
		return nil
	}
	d.stats.Iterations++

	if p.CurrentTime >= d.Horizon {
		d.remove(model.RemovedAtHorizon, p)
		d.startDraining("horizon")
		return nil
	}

	energyBefore := p.Energy
	remaining := d.Horizon - p.CurrentTime
	if err := d.Integrator.Advance(p, d.Force, min(d.Elastic.MaxTimestep(), remaining), d.Tolerance); err != nil {
		return d.fail(p, err)
	}
	if p.Timestep >= remaining {
		p.CurrentTime = d.Horizon
	}
	if d.outside(p) {
		return nil
	}

	verdict, err := d.sample(p, energyBefore)
	if err != nil {
		return d.fail(p, err)
	}

	// elastic scattering sees the energy of the full step
	elasticEnergy := p.Energy
	if verdict.Interacts() && verdict.Time <= p.Timestep {
		p.ReduceTimestepTo(verdict.Time)
		channel := d.Channels[verdict.Candidate]
		secondary, err := channel.Model.Interact(p.Energy, p)
		if err != nil {
			return d.fail(p, fmt.Errorf("%s: %w", channel.Rate.Name, err))
		}
		d.stats.Interactions[channel.Rate.Name]++
		if secondary != nil {
			if err := d.insert(secondary); err != nil {
				return d.fail(p, err)
			}
			d.stats.Secondaries++
		}
		p.UpdateEnergy()
		if d.outside(p) {
			return nil
		}
	}

	if err := d.Elastic.Scatter(elasticEnergy, p); err != nil {
		return d.fail(p, fmt.Errorf("elastic scattering: %w", err))
	}
	d.Recorder.UpdateParticle(p)
	if err := d.particles.Insert(p.CurrentTime, p); err != nil {
		return d.fail(p, err)
	}
	return nil
}

// outside removes p when it is too slow or too far away.
func (d *Driver) outside(p *model.Particle) bool {
	switch {
	case p.Energy < d.RemovalEnergy:
		d.remove(model.RemovedLowEnergy, p)
	case d.MaxDistance > 0 && r3.Norm(p.Position) > d.MaxDistance:
		d.remove(model.RemovedOutOfBounds, p)
	default:
		return false
	}
	return true
}

// sample draws the interaction verdict for the step p just took, halving the
// step while the rates are too curved over it.
func (d *Driver) sample(p *model.Particle, energyBefore float64) (interaction.Verdict, error) {
	if len(d.candidates) == 0 {
		return interaction.Verdict{Time: 2 * p.Timestep, Candidate: interaction.NoInteraction}, nil
	}
	for halvings := 0; ; halvings++ {
		verdict, err := d.Sampler.Sample(energyBefore, p.EnergyAt(0.5), p.Energy, p.Timestep, d.candidates)
		if err != nil {
			return verdict, err
		}
		d.stats.MaxHalvingsUsed = max(d.stats.MaxHalvingsUsed, halvings)
		switch verdict.Flag {
		case interaction.FlagRedo:
			if halvings >= d.MaxHalvings {
				return verdict, fmt.Errorf("%w after %d halvings (dt=%g)", ErrHalvingBudget, halvings, p.Timestep)
			}
			d.logger.Debug("timestep redo", slog.Uint64("particle", p.ID), slog.Float64("timestep", p.Timestep), slog.Float64("energy", p.Energy))
			p.ReduceTimestepTo(p.Timestep / 2)
			p.NextTimestep /= 2
			d.stats.Redos++
			continue
		case interaction.FlagShrinkNext:
			p.NextTimestep /= 2
			d.stats.ShrinkNext++
		}
		return verdict, nil
	}
}
