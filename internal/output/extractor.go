package output

import (
	"encoding/csv"
	"fmt"
	"math"
	"strconv"

	"github.com/wildstyl3r/remc/internal/config"
	"github.com/wildstyl3r/remc/internal/constants"
	"github.com/wildstyl3r/remc/internal/flux"
	"github.com/wildstyl3r/remc/internal/sim"
	"github.com/wildstyl3r/remc/internal/utils"
)

type DataExtractor struct {
	model     *sim.Model
	ensemble  *flux.Ensemble
	results   []sim.RunResult
	timeUnits float64 // [s]
}

// NewDataExtractor keeps the successful runs of m.
func NewDataExtractor(m *sim.Model, ensemble *flux.Ensemble, results []sim.RunResult) *DataExtractor {
	de := DataExtractor{
		model:     m,
		ensemble:  ensemble,
		timeUnits: constants.TimeUnits,
	}
	for _, result := range results {
		if result.Err == nil {
			de.results = append(de.results, result)
		}
	}
	if m.Parameters.Verbose() {
		fmt.Printf("Mean flux integral: %g s\n", ensemble.Total()*de.timeUnits)
	}
	return &de
}

func (de *DataExtractor) Save(df DataFlags) error {
	units := de.model.Parameters.OutputUnits()
	for name, output := range df.sequentials {
		if !*output.saveFlag && !*df.all {
			continue
		}
		file, err := utils.OpenFile(de.model.Parameters.MakeDir, df.outputPath, output.fileSuffix, de.model.Name, "csv")
		if err != nil {
			return fmt.Errorf("unable to save %s: %w", name, err)
		}
		columns := append([]string{}, output.columnNames...)
		columns[0] += " (" + config.UnitName(output.xUnit, units) + ")"
		rows := [][]string{columns}
		xColumnValue, yColumnValues := output.values(de)
		for x := range xColumnValue {
			row := []string{strconv.FormatFloat(config.SI(xColumnValue[x], output.xUnit, units, false), 'f', -1, 64)}
			for i := range yColumnValues[x] {
				row = append(row, strconv.FormatFloat(config.SI(yColumnValues[x][i], output.yUnit, units, false), 'f', -1, 64))
			}
			rows = append(rows, row)
		}
		w := csv.NewWriter(file)
		err = w.WriteAll(rows)
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return fmt.Errorf("error writing csv: %w", err)
		}
		if de.model.Parameters.Verbose() {
			fmt.Println(name + " saved")
		}
	}
	return nil
}

// SummaryColumns heads the rows of Summary.
func (df DataFlags) SummaryColumns(units []string) []string {
	columns := []string{"model", "runs"}
	for _, scalar := range df.scalars {
		name := scalar.name
		if len(scalar.unit) > 0 {
			name += " (" + config.UnitName(scalar.unit, units) + ")"
		}
		columns = append(columns, name, name+" 95% error")
	}
	return columns
}

// Summary is the model row of the summary table: every scalar averaged over
// the successful runs with the half width of its 95% confidence interval.
func (de *DataExtractor) Summary(df DataFlags) []string {
	units := de.model.Parameters.OutputUnits()
	row := []string{de.model.Name, strconv.Itoa(len(de.results))}
	for _, scalar := range df.scalars {
		values := make([]float64, len(de.results))
		for i := range de.results {
			values[i] = scalar.value(de, de.results[i])
		}
		mean, variance := utils.MeanAndVariance(values, true)
		stdErr := 0.
		if len(values) > 0 {
			stdErr = constants.Quantile95 * math.Sqrt(variance/float64(len(values)))
		}
		row = append(row,
			strconv.FormatFloat(config.SI(mean, scalar.unit, units, false), 'g', 6, 64),
			strconv.FormatFloat(config.SI(stdErr, scalar.unit, units, false), 'g', 6, 64),
		)
	}
	return row
}
