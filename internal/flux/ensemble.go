package flux

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/wildstyl3r/remc/internal/constants"
	"github.com/wildstyl3r/remc/internal/utils"
)

// Ensemble averages normalized flux curves of independent runs sharing the same edges.
type Ensemble struct {
	Edges []float64
	runs  [][]float64
}

func NewEnsemble(edges []float64) *Ensemble {
	return &Ensemble{Edges: edges}
}

func (e *Ensemble) Add(normalized []float64) error {
	if len(normalized) != len(e.Edges) {
		return fmt.Errorf("flux curve has %d bins, expected %d", len(normalized), len(e.Edges))
	}
	e.runs = append(e.runs, normalized)
	return nil
}

func (e *Ensemble) Runs() int {
	return len(e.runs)
}

// Mean returns the per-edge average and the half width of its 95% confidence
// interval. With a single run the error is zero.
func (e *Ensemble) Mean() (mean, stdErr []float64) {
	mean = make([]float64, len(e.Edges))
	stdErr = make([]float64, len(e.Edges))
	if len(e.runs) == 0 {
		return
	}
	column := make([]float64, len(e.runs))
	for i := range e.Edges {
		for run := range e.runs {
			column[run] = e.runs[run][i]
		}
		m, variance := utils.MeanAndVariance(column, true)
		mean[i] = m
		stdErr[i] = constants.Quantile95 * math.Sqrt(variance/float64(len(e.runs)))
	}
	return
}

// Total is the time integral of the mean curve by the trapezoid rule.
func (e *Ensemble) Total() float64 {
	mean, _ := e.Mean()
	if len(mean) < 2 {
		return 0
	}
	step := e.Edges[1] - e.Edges[0]
	return step * (floats.Sum(mean) - (mean[0]+mean[len(mean)-1])/2)
}
