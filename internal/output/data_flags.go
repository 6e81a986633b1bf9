package output

import (
	"errors"
	"flag"
	"strconv"

	"github.com/wildstyl3r/remc/internal/config"
	"github.com/wildstyl3r/remc/internal/constants"
	"github.com/wildstyl3r/remc/internal/history"
	"github.com/wildstyl3r/remc/internal/sim"
	"github.com/wildstyl3r/remc/internal/utils"
)

type DataItem struct {
	saveFlag   *bool
	fileSuffix string
}

type SequentialDataItem struct {
	DataItem
	columnNames []string
	values      func(*DataExtractor) (args []float64, values [][]float64)
	xUnit       []config.UnitElement
	yUnit       []config.UnitElement
}

// ScalarDataItem is a per-run quantity reported as its mean over runs.
type ScalarDataItem struct {
	name  string
	value func(de *DataExtractor, result sim.RunResult) float64
	unit  []config.UnitElement
}

type DataFlags struct {
	all         *bool
	history     *bool
	tracks      *bool
	sequentials map[string]SequentialDataItem
	scalars     []ScalarDataItem
	outputPath  string
}

func NewDataFlags(fs *flag.FlagSet) DataFlags {
	return DataFlags{
		all:     fs.Bool("all", false, "save every available metric"),
		history: fs.Bool("history", false, "save binary particle histories of every run"),
		tracks:  fs.Bool("tracks", false, "save particle tracks of every run as GeoJSON"),
		sequentials: map[string]SequentialDataItem{
			"Flux": {
				DataItem: DataItem{
					saveFlag:   fs.Bool("f", true, "save flux"),
					fileSuffix: "flux",
				},
				columnNames: []string{"t", "flux per seed", "95% error"},
				values: func(de *DataExtractor) (args []float64, values [][]float64) {
					mean, stdErr := de.ensemble.Mean()
					for i, edge := range de.ensemble.Edges {
						args = append(args, edge*de.timeUnits)
						values = append(values, []float64{mean[i], stdErr[i]})
					}
					return args, values
				},
				xUnit: []config.UnitElement{{Class: config.Time, Power: 1}},
			},
		},
		scalars: []ScalarDataItem{
			{
				name: "secondaries per seed",
				value: func(de *DataExtractor, result sim.RunResult) float64 {
					return float64(result.Stats.Secondaries) / float64(de.model.Parameters.Seeds)
				},
			},
			{
				name: "interactions per seed",
				value: func(de *DataExtractor, result sim.RunResult) float64 {
					interactions := 0
					for _, n := range result.Stats.Interactions {
						interactions += n
					}
					return float64(interactions) / float64(de.model.Parameters.Seeds)
				},
			},
			{
				name: "alive at horizon per seed",
				value: func(de *DataExtractor, result sim.RunResult) float64 {
					return float64(result.Stats.RemovedAtHorizon) / float64(de.model.Parameters.Seeds)
				},
			},
			{
				name: "flux integral",
				value: func(de *DataExtractor, result sim.RunResult) float64 {
					return trapezoid(de.ensemble.Edges, result.Flux) * de.timeUnits
				},
				unit: []config.UnitElement{{Class: config.Time, Power: 1}},
			},
			{
				name: "iterations",
				value: func(_ *DataExtractor, result sim.RunResult) float64 {
					return float64(result.Stats.Iterations)
				},
			},
		},
	}
}

func (df *DataFlags) SetOutputPath(path string) {
	df.outputPath = utils.OutputPath(path)
}

func (df DataFlags) OutputPath() string {
	return df.outputPath
}

// Recorders opens the recorders requested by flags or by the model
// parameters; nil when nothing is recorded.
func (df DataFlags) Recorders(m *sim.Model) sim.RecorderFactory {
	saveHistory := *df.history || m.Parameters.History
	saveTracks := *df.tracks || m.Parameters.Tracks
	if !saveHistory && !saveTracks {
		return nil
	}
	lengthScale := config.SI(constants.DistanceUnits, []config.UnitElement{{Class: config.Length, Power: 1}}, m.Parameters.OutputUnits(), false)
	return func(run int) (history.Recorder, error) {
		name := m.Name + "_run" + strconv.Itoa(run)
		var recorders []history.Recorder
		if saveHistory {
			path, err := utils.FilePath(m.Parameters.MakeDir, df.outputPath, "history", name, "bin")
			if err != nil {
				return nil, err
			}
			r, err := history.CreateBinaryRecorder(path)
			if err != nil {
				return nil, err
			}
			recorders = append(recorders, r)
		}
		if saveTracks {
			path, err := utils.FilePath(m.Parameters.MakeDir, df.outputPath, "tracks", name, "geojson")
			if err != nil {
				return nil, errors.Join(err, history.Multi(recorders...).Close())
			}
			r, err := history.CreateTrackRecorder(path, lengthScale)
			if err != nil {
				return nil, errors.Join(err, history.Multi(recorders...).Close())
			}
			recorders = append(recorders, r)
		}
		if len(recorders) == 1 {
			return recorders[0], nil
		}
		return history.Multi(recorders...), nil
	}
}

func trapezoid(x, y []float64) (integral float64) {
	for i := 1; i < len(x) && i < len(y); i++ {
		integral += (x[i] - x[i-1]) * (y[i] + y[i-1]) / 2
	}
	return
}
