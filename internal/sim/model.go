package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/wildstyl3r/lxgata"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/remc/internal/config"
	"github.com/wildstyl3r/remc/internal/constants"
	"github.com/wildstyl3r/remc/internal/flux"
	"github.com/wildstyl3r/remc/internal/history"
	"github.com/wildstyl3r/remc/internal/interaction"
	"github.com/wildstyl3r/remc/internal/model"
	"github.com/wildstyl3r/remc/internal/physics"
)

// Model holds the read-only part of a configured simulation, shared by all of
// its runs, in dimensionless units.
type Model struct {
	Name       string
	Parameters config.ModelParameters

	InitialEnergy   float64
	RemovalEnergy   float64
	Horizon         float64
	InitialTimestep float64
	MaxDistance     float64
	Position        r3.Vec
	Direction       r3.Vec

	eField     *physics.UniformField
	bField     *physics.UniformField
	friction   *physics.FrictionTable
	kinds      []lxgata.CollisionType
	scattering physics.ScatteringFunction
}

func vec(v []float64) r3.Vec {
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

// NewModel converts unified parameters (see config.ModelParameters.CheckAndUnify)
// into a model. Cross sections are taken from parameters.CrossSectionsData.
func NewModel(name string, parameters config.ModelParameters) (*Model, error) {
	m := &Model{
		Name:            name,
		Parameters:      parameters,
		InitialEnergy:   parameters.InitialEnergy / constants.EnergyUnitsEV,
		RemovalEnergy:   parameters.RemovalEnergy / constants.EnergyUnitsEV,
		Horizon:         parameters.Horizon / constants.TimeUnits,
		InitialTimestep: parameters.InitialTimestep / constants.TimeUnits,
		MaxDistance:     parameters.MaxDistance / constants.DistanceUnits,
		Position:        r3.Scale(1/constants.DistanceUnits, vec(parameters.InitialPosition)),
		Direction:       r3.Unit(vec(parameters.InitialDirection)),
	}

	m.eField = physics.NewUniformField(r3.Scale(1/constants.EFieldUnits, vec(parameters.EField)))
	m.bField = physics.NewUniformField(r3.Scale(1/constants.BFieldUnits, vec(parameters.BField)))
	if len(parameters.FieldRegionMin) == 3 && len(parameters.FieldRegionMax) == 3 {
		for _, field := range []*physics.UniformField{m.eField, m.bField} {
			field.Min = r3.Scale(1/constants.DistanceUnits, vec(parameters.FieldRegionMin))
			field.Max = r3.Scale(1/constants.DistanceUnits, vec(parameters.FieldRegionMax))
		}
	}

	if parameters.Friction {
		subtract := 0.
		if parameters.Moller {
			subtract = m.RemovalEnergy
		}
		var err error
		if parameters.FrictionTable != "" {
			m.friction, err = physics.LoadFrictionTable(parameters.FrictionTable, subtract)
		} else {
			m.friction, err = physics.DefaultFrictionTable(subtract)
		}
		if err != nil {
			return nil, err
		}
	}

	if parameters.CrossSectionsData() != nil {
		var err error
		if m.kinds, err = physics.ParseCollisionKinds(parameters.CrossSectionKinds); err != nil {
			return nil, err
		}
		var ok bool
		if m.scattering, ok = physics.ScatteringFunctions[parameters.Scattering]; !ok {
			return nil, fmt.Errorf("unknown scattering function %q", parameters.Scattering)
		}
	}
	return m, nil
}

// NewRun builds the driver of one run with its own generator, seeded from
// Seed and the run index, and seeds the primary particles.
func (m *Model) NewRun(run int, recorder Recorder) (*Driver, *flux.Accumulator, error) {
	p := &m.Parameters
	rng := rand.New(rand.NewPCG(p.Seed+uint64(run), p.Seed))

	force := &model.LorentzForce{E: m.eField, B: m.bField, FrictionScale: p.FrictionScale}
	if m.friction != nil {
		force.Friction = m.friction
	}

	var elastic ElasticModel = physics.NoScattering{}
	if p.Elastic {
		elastic = physics.NewShieldedCoulomb(p.AtomicNumber, p.ElasticMaxTimestep/constants.TimeUnits, rng)
	}

	var channels []Channel
	if p.Moller {
		moller := physics.NewMoller(m.RemovalEnergy, rng)
		channels = append(channels, Channel{Rate: interaction.MollerRate(moller), Model: moller})
	}
	if p.CrossSectionsData() != nil {
		collisions, err := physics.NewCollisionChannel(p.CrossSectionsData(), m.kinds, p.GasDensity, m.RemovalEnergy, rng)
		if err != nil {
			return nil, nil, err
		}
		collisions.Scattering = m.scattering
		channels = append(channels, Channel{Rate: interaction.CollisionRate(collisions), Model: collisions})
	}

	integrator := model.NewIntegrator()
	integrator.Safety = p.Safety
	integrator.MaxRetries = p.MaxRetries
	integrator.MaxGrowth = p.MaxGrowth

	sampler := interaction.NewSampler(rng)
	sampler.LowerBound = p.LowerBound
	sampler.UpperBound = p.UpperBound
	sampler.NegligibleCount = p.NegligibleCount

	accumulator := flux.NewAccumulator(m.Horizon, p.FluxBins)
	d, err := NewDriver(Options{
		Horizon:       m.Horizon,
		RemovalEnergy: m.RemovalEnergy,
		Tolerance:     p.RelativeTolerance,
		MaxHalvings:   p.MaxHalvings,
		MaxIterations: p.MaxIterations,
		MaxDistance:   m.MaxDistance,
		Logger:        slog.Default().With(slog.String("component", "sim"), slog.String("model", m.Name), slog.Int("run", run)),
	}, Collaborators{
		Force:      force,
		Elastic:    elastic,
		Channels:   channels,
		Integrator: integrator,
		Sampler:    sampler,
		Recorder:   recorder,
		Flux:       accumulator,
	})
	if err != nil {
		return nil, nil, err
	}

	for range p.Seeds {
		particle := model.NewParticle(-1, m.InitialEnergy, m.Position, m.Direction, 0, m.InitialTimestep)
		if err := d.Seed(particle); err != nil {
			return nil, nil, err
		}
	}
	return d, accumulator, nil
}

type RunResult struct {
	Run   int
	Stats Stats
	Flux  []float64
	Err   error
}

// RecorderFactory opens the history recorder of a run.
type RecorderFactory func(run int) (history.Recorder, error)

// Run performs all runs of the model on Threads workers and averages their
// flux. Results are ordered by run; failed runs are left out of the ensemble.
func (m *Model) Run(recorders RecorderFactory) (*flux.Ensemble, []RunResult, error) {
	var computeWg, stateWg sync.WaitGroup
	runs := m.Parameters.Runs
	ensemble := flux.NewEnsemble(flux.NewAccumulator(m.Horizon, m.Parameters.FluxBins).Edges())
	results := make([]RunResult, runs)

	resultflow := make(chan RunResult, runs)
	stateWg.Add(1)
	go func() {
		defer stateWg.Done()
		counter := 0
		for result := range resultflow {
			counter++
			if m.Parameters.Verbose() {
				fmt.Printf("\rDone:[%d/%d]", counter, runs)
			}
			results[result.Run] = result
		}
		if m.Parameters.Verbose() {
			fmt.Println()
		}
	}()

	computeflow := make(chan int, runs)
	for run := range runs {
		computeflow <- run
	}
	close(computeflow)

	for range max(m.Parameters.Threads(), 1) {
		computeWg.Add(1)
		go func() {
			defer computeWg.Done()
			for run := range computeflow {
				resultflow <- m.single(run, recorders)
			}
		}()
	}
	computeWg.Wait()
	close(resultflow)
	stateWg.Wait()

	var errs []error
	for _, result := range results {
		if result.Err != nil {
			errs = append(errs, fmt.Errorf("run %d: %w", result.Run, result.Err))
			continue
		}
		if err := ensemble.Add(result.Flux); err != nil {
			errs = append(errs, err)
		}
	}
	return ensemble, results, errors.Join(errs...)
}

func (m *Model) single(run int, recorders RecorderFactory) RunResult {
	result := RunResult{Run: run}
	recorder := history.Discard
	if recorders != nil {
		var err error
		if recorder, err = recorders(run); err != nil {
			result.Err = err
			return result
		}
	}

	d, accumulator, err := m.NewRun(run, recorder)
	if err == nil {
		err = d.Run()
		result.Stats = d.Stats()
		result.Flux = accumulator.Normalize(m.Parameters.Seeds)
	}
	result.Err = errors.Join(err, recorder.Close())
	return result
}
