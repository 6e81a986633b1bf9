package sim

import (
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wildstyl3r/lxgata"

	"github.com/wildstyl3r/remc/internal/config"
	"github.com/wildstyl3r/remc/internal/constants"
	"github.com/wildstyl3r/remc/internal/history"
)

func airParameters() config.ModelParameters {
	p := config.ModelParameters{
		Runs:              3,
		Seeds:             4,
		Seed:              11,
		InitialEnergy:     1e6,
		InitialDirection:  []float64{0, 0, 1},
		InitialPosition:   []float64{0, 0, 0},
		EField:            []float64{0, 0, 0},
		BField:            []float64{0, 0, 0},
		Horizon:           0.5 * constants.TimeUnits,
		InitialTimestep:   1e-11,
		RemovalEnergy:     2e3,
		RelativeTolerance: 1e-3,
		Safety:            0.9,
		MaxRetries:        100,
		MaxGrowth:         5,
		LowerBound:        0.1,
		UpperBound:        0.2,
		NegligibleCount:   1e-3,
		MaxHalvings:       60,
		Friction:          true,
		FrictionScale:     1,
		GasDensity:        constants.AirMolecularDensity,
		FluxBins:          51,
	}
	p.SetThreads(2)
	return p
}

func TestModelStopsElectronsByFriction(t *testing.T) {
	m, err := NewModel("friction", airParameters())
	require.NoError(t, err)
	ensemble, results, err := m.Run(nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 3, ensemble.Runs())

	for run, result := range results {
		assert.Equal(t, run, result.Run)
		assert.Equal(t, 4, result.Stats.Seeded)
		assert.Equal(t, 4, result.Stats.RemovedLowEnergy)
		assert.Zero(t, result.Stats.RemovedAtHorizon)
	}

	mean, stdErr := ensemble.Mean()
	assert.Equal(t, 1., mean[0])
	assert.Zero(t, stdErr[0])
	assert.Zero(t, mean[len(mean)-1])
	for i := 1; i < len(mean); i++ {
		assert.LessOrEqual(t, mean[i], mean[i-1])
	}
}

func TestModelWithMollerRecordsHistory(t *testing.T) {
	parameters := airParameters()
	parameters.Runs = 2
	parameters.Seeds = 2
	parameters.InitialEnergy = 1e5
	parameters.Moller = true

	m, err := NewModel("moller", parameters)
	require.NoError(t, err)

	dir := t.TempDir()
	path := func(run int) string {
		return filepath.Join(dir, "moller_run"+strconv.Itoa(run)+".bin")
	}
	_, results, err := m.Run(func(run int) (history.Recorder, error) {
		return history.CreateBinaryRecorder(path(run))
	})
	require.NoError(t, err)

	for _, result := range results {
		stats := result.Stats
		assert.Equal(t, stats.Seeded+stats.Secondaries, stats.Removed())
		assert.LessOrEqual(t, stats.Secondaries, stats.Interactions["moller"])

		events, err := history.ReadEventsFile(path(result.Run))
		require.NoError(t, err)
		counts := map[history.Command]int{}
		for _, e := range events {
			counts[e.Command]++
		}
		assert.Equal(t, stats.Seeded+stats.Secondaries, counts[history.CommandNew])
		assert.Equal(t, stats.Removed(), counts[history.CommandRemove])
	}
}

func TestNewModelRejectsUnknownScattering(t *testing.T) {
	parameters := airParameters()
	parameters.SetCrossSectionsData(make(lxgata.Collisions, 1))
	parameters.Scattering = "sideways"
	_, err := NewModel("bad", parameters)
	assert.Error(t, err)
}
