package flux

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/remc/internal/model"
)

func particleAt(time float64) *model.Particle {
	return model.NewParticle(-1, 1, r3.Vec{}, r3.Vec{Z: 1}, time, 0.01)
}

func TestAccumulatorBins(t *testing.T) {
	a := NewAccumulator(1, 11)
	require.Len(t, a.Edges(), 11)

	early := particleAt(0)
	late := particleAt(0.45)
	a.AddParticle(early)
	a.AddParticle(late)
	assert.Equal(t, 2, a.Alive())

	early.CurrentTime = 0.35
	a.RemoveParticle(early)
	late.CurrentTime = 1
	a.RemoveParticle(late)

	assert.Equal(t, []int64{1, 1, 1, 1, 0, 1, 1, 1, 1, 1, 1}, a.Counts())
	assert.Zero(t, a.Alive())

	normalized := a.Normalize(2)
	assert.Equal(t, 0.5, normalized[0])
	assert.Equal(t, 0., normalized[4])
}

func TestAccumulatorRemovalIsIdempotent(t *testing.T) {
	a := NewAccumulator(1, 11)
	p := particleAt(0)
	a.AddParticle(p)
	p.CurrentTime = 1
	a.RemoveParticle(p)
	a.RemoveParticle(p)
	a.RemoveParticle(particleAt(0))
	for _, c := range a.Counts() {
		assert.Equal(t, int64(1), c)
	}

	// born at the horizon: never counted
	a = NewAccumulator(1, 11)
	born := particleAt(1)
	a.AddParticle(born)
	a.RemoveParticle(born)
	assert.Equal(t, make([]int64, 11), a.Counts())
}

func TestEnsemble(t *testing.T) {
	e := NewEnsemble([]float64{0, 1})
	require.NoError(t, e.Add([]float64{1, 2}))
	require.NoError(t, e.Add([]float64{3, 4}))
	assert.Error(t, e.Add([]float64{1}))
	assert.Equal(t, 2, e.Runs())

	mean, stdErr := e.Mean()
	assert.Equal(t, []float64{2, 3}, mean)
	assert.InDeltaSlice(t, []float64{1.96, 1.96}, stdErr, 1e-12)
	assert.InDelta(t, 2.5, e.Total(), 1e-12)

	single := NewEnsemble([]float64{0, 1})
	require.NoError(t, single.Add([]float64{1, 2}))
	_, stdErr = single.Mean()
	assert.Equal(t, []float64{0, 0}, stdErr)
}
