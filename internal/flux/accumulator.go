package flux

import (
	"slices"

	"github.com/wildstyl3r/remc/internal/model"
	"github.com/wildstyl3r/remc/internal/utils"
)

// Accumulator counts, for every edge time, how many particles were alive at
// that moment. A particle alive over [start, end] is counted at every edge in
// that interval once it is removed.
type Accumulator struct {
	horizon    float64
	edges      []float64
	counts     []int64
	startTimes map[uint64]float64
}

func NewAccumulator(horizon float64, bins int) *Accumulator {
	return &Accumulator{
		horizon:    horizon,
		edges:      utils.Linspace(0, horizon, bins),
		counts:     make([]int64, bins),
		startTimes: map[uint64]float64{},
	}
}

func (a *Accumulator) AddParticle(p *model.Particle) {
	a.startTimes[p.ID] = p.CurrentTime
}

// RemoveParticle is a no-op for particles that were never added or were
// already removed.
func (a *Accumulator) RemoveParticle(p *model.Particle) {
	start, ok := a.startTimes[p.ID]
	if !ok {
		return
	}
	delete(a.startTimes, p.ID)
	if start >= a.horizon {
		return
	}

	first, _ := slices.BinarySearch(a.edges, start)
	last, found := slices.BinarySearch(a.edges, p.CurrentTime)
	if found {
		last++
	}
	for i := first; i < last; i++ {
		a.counts[i]++
	}
}

// Alive is the number of particles added and not yet removed.
func (a *Accumulator) Alive() int {
	return len(a.startTimes)
}

func (a *Accumulator) Edges() []float64 {
	return a.edges
}

func (a *Accumulator) Counts() []int64 {
	return a.counts
}

// Normalize returns the counts per seed particle.
func (a *Accumulator) Normalize(nSeeds int) []float64 {
	normalized := make([]float64, len(a.counts))
	for i := range a.counts {
		normalized[i] = float64(a.counts[i]) / float64(nSeeds)
	}
	return normalized
}
