package output

import (
	"encoding/csv"
	"flag"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildstyl3r/remc/internal/config"
	"github.com/wildstyl3r/remc/internal/flux"
	"github.com/wildstyl3r/remc/internal/history"
	"github.com/wildstyl3r/remc/internal/sim"
)

func extractor(t *testing.T) (DataFlags, *DataExtractor) {
	df := NewDataFlags(flag.NewFlagSet("test", flag.ContinueOnError))
	df.SetOutputPath(t.TempDir())

	p := config.ModelParameters{Seeds: 2}
	p.SetOutputUnits([]string{"m", "eV", "ns", "V", "T", "Pa"})
	m := &sim.Model{Name: "air", Parameters: p}

	ensemble := flux.NewEnsemble([]float64{0, 1})
	results := []sim.RunResult{
		{Run: 0, Stats: sim.Stats{Secondaries: 2, Interactions: map[string]int{"moller": 2}}, Flux: []float64{1, 0}},
		{Run: 1, Stats: sim.Stats{Secondaries: 4, Interactions: map[string]int{"moller": 3, "ionization": 1}}, Flux: []float64{1, 1}},
		{Run: 2, Err: os.ErrClosed},
	}
	for _, result := range results[:2] {
		require.NoError(t, ensemble.Add(result.Flux))
	}
	return df, NewDataExtractor(m, ensemble, results)
}

func TestSaveFlux(t *testing.T) {
	df, de := extractor(t)
	require.NoError(t, de.Save(df))

	file, err := os.Open(df.OutputPath() + "air_flux.csv")
	require.NoError(t, err)
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"t (ns)", "flux per seed", "95% error"}, rows[0])
	assert.Equal(t, []string{"0", "1", "0"}, rows[1])

	last, err := strconv.ParseFloat(rows[2][0], 64)
	require.NoError(t, err)
	assert.InDelta(t, 172, last, 1e-9)
	assert.Equal(t, "0.5", rows[2][1])
}

func TestSummary(t *testing.T) {
	df, de := extractor(t)
	columns := df.SummaryColumns(de.model.Parameters.OutputUnits())
	row := de.Summary(df)
	require.Len(t, row, len(columns))
	assert.Equal(t, "model", columns[0])
	assert.Equal(t, []string{"air", "2"}, row[:2])

	values := map[string]float64{}
	for i := 2; i < len(row); i++ {
		v, err := strconv.ParseFloat(row[i], 64)
		require.NoError(t, err)
		values[columns[i]] = v
	}
	assert.InDelta(t, 1.5, values["secondaries per seed"], 1e-9)
	assert.InDelta(t, 0.98, values["secondaries per seed 95% error"], 1e-9)
	assert.InDelta(t, 1.5, values["interactions per seed"], 1e-9)
	assert.InDelta(t, 129, values["flux integral (ns)"], 1e-3)
}

func TestRecorders(t *testing.T) {
	df, de := extractor(t)
	assert.Nil(t, df.Recorders(de.model))

	de.model.Parameters.History = true
	de.model.Parameters.Tracks = true
	factory := df.Recorders(de.model)
	require.NotNil(t, factory)
	recorder, err := factory(3)
	require.NoError(t, err)
	require.NoError(t, recorder.Close())

	events, err := history.ReadEventsFile(df.OutputPath() + "air_run3_history.bin")
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.FileExists(t, df.OutputPath()+"air_run3_tracks.geojson")
}
