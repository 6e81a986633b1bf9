package interaction

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/wildstyl3r/remc/internal/physics"
)

func TestFitQuadratic(t *testing.T) {
	q := fitQuadratic(1, 4, 2)
	eval := func(u float64) float64 { return q.a + q.b*u + q.c*u*u }
	assert.InDelta(t, 1., eval(0), 1e-15)
	assert.InDelta(t, 4., eval(0.5), 1e-15)
	assert.InDelta(t, 2., eval(1), 1e-15)
	// Simpson's rule is exact for quadratics
	assert.InDelta(t, (1.+4*4+2)/6, q.integral(1), 1e-15)
}

func TestConstantRateCalibration(t *testing.T) {
	rng := rand.New(rand.NewPCG(12, 34))
	sampler := NewSampler(rng)
	candidates := []Candidate{Constant("synthetic", 3)}
	const timestep = 0.2
	const trials = 50000

	counts := make([]float64, trials)
	var times []float64
	for i := range counts {
		verdict, err := sampler.Sample(1, 1, 1, timestep, candidates)
		require.NoError(t, err)
		assert.Equal(t, FlagNone, verdict.Flag)
		assert.InDelta(t, 3*timestep, verdict.Expected, 1e-12)
		counts[i] = float64(verdict.Count)
		if verdict.Interacts() {
			assert.Equal(t, 0, verdict.Candidate)
			require.GreaterOrEqual(t, verdict.Time, 0.)
			require.LessOrEqual(t, verdict.Time, timestep)
			times = append(times, verdict.Time)
		} else {
			assert.Equal(t, 2*timestep, verdict.Time)
		}
	}

	mean, std := stat.MeanStdDev(counts, nil)
	assert.InDelta(t, 3*timestep, mean, 4*std/math.Sqrt(trials))

	// with a constant rate the first interaction is exponential, truncated at the step
	rate := 3.
	truncatedMean := 1/rate - timestep*math.Exp(-rate*timestep)/(1-math.Exp(-rate*timestep))
	assert.InDelta(t, truncatedMean, stat.Mean(times, nil), 0.002)
}

func TestLinearRateInteractionTime(t *testing.T) {
	rng := rand.New(rand.NewPCG(56, 78))
	sampler := NewSampler(rng)
	candidates := []Candidate{PowerLaw("linear", 1, 1)}

	// a rate growing linearly from zero puts a lone interaction at u with density 2u
	var times []float64
	early := 0
	for range 40000 {
		verdict, err := sampler.Sample(0, 0.5, 1, 1, candidates)
		require.NoError(t, err)
		assert.Equal(t, FlagNone, verdict.Flag)
		if verdict.Count != 1 {
			continue
		}
		require.True(t, verdict.Interacts())
		require.GreaterOrEqual(t, verdict.Time, 0.)
		require.LessOrEqual(t, verdict.Time, 1.)
		if verdict.Time <= 0.5 {
			early++
		}
		times = append(times, verdict.Time)
	}
	require.Greater(t, len(times), 10000)
	assert.InDelta(t, 0.25, float64(early)/float64(len(times)), 0.02)
	assert.InDelta(t, 2./3, stat.Mean(times, nil), 0.01)
}

func TestZeroAndNegativeRatesNeverInteract(t *testing.T) {
	sampler := NewSampler(rand.New(rand.NewPCG(1, 1)))
	for _, candidates := range [][]Candidate{
		{Constant("zero", 0)},
		{Constant("negative", -5)},
		{PowerLaw("negative at one end", -1, 1)},
		{},
	} {
		for range 100 {
			verdict, err := sampler.Sample(0.5, 1, 2, 1, candidates)
			require.NoError(t, err)
			assert.False(t, verdict.Interacts())
			assert.Zero(t, verdict.Expected)
			assert.Equal(t, 2., verdict.Time)
		}
	}
}

func TestErrorFlags(t *testing.T) {
	sampler := NewSampler(rand.New(rand.NewPCG(5, 6)))
	cases := []struct {
		name            string
		start, mid, end float64
		candidate       Candidate
		expected        ErrorFlag
	}{
		{"linear in energy", 1, 2, 3, PowerLaw("linear", 1, 1), FlagNone},
		{"mid energy off the chord", 1, 2.3, 3, PowerLaw("linear", 1, 1), FlagShrinkNext},
		{"strong curvature", 1, 2, 3, PowerLaw("cube", 1, 3), FlagRedo},
		{"negligible", 1, 2, 3, PowerLaw("tiny cube", 1e-9, 3), FlagNone},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			verdict, err := sampler.Sample(c.start, c.mid, c.end, 0.1, []Candidate{c.candidate})
			require.NoError(t, err)
			assert.Equal(t, c.expected, verdict.Flag)
		})
	}

	// the most severe candidate wins
	verdict, err := sampler.Sample(1, 2, 3, 0.1, []Candidate{PowerLaw("linear", 1, 1), PowerLaw("cube", 1, 3)})
	require.NoError(t, err)
	assert.Equal(t, FlagRedo, verdict.Flag)
}

func TestSelectionFollowsExpectedCounts(t *testing.T) {
	sampler := NewSampler(rand.New(rand.NewPCG(21, 42)))
	candidates := []Candidate{Constant("rare", 1), Constant("negative", -1), Constant("common", 3)}

	var chosen [3]float64
	for range 20000 {
		verdict, err := sampler.Sample(1, 1, 1, 0.1, candidates)
		require.NoError(t, err)
		if verdict.Interacts() {
			chosen[verdict.Candidate]++
		}
	}
	assert.Zero(t, chosen[1])
	assert.InDelta(t, 0.25, chosen[0]/(chosen[0]+chosen[2]), 0.02)
}

func TestNonFiniteRateIsFatal(t *testing.T) {
	sampler := NewSampler(rand.New(rand.NewPCG(1, 2)))
	_, err := sampler.Sample(0, 1, 2, 0.1, []Candidate{PowerLaw("diverges at zero", 1, -1)})
	assert.ErrorIs(t, err, ErrNonFiniteRate)
}

func TestMollerCandidate(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	m := physics.NewMoller(0.004, rng)
	c := MollerRate(m)
	assert.Equal(t, KindMoller, c.Kind)

	rate, err := c.Rate(0.006)
	require.NoError(t, err)
	assert.Zero(t, rate)

	rate, err = c.Rate(1)
	require.NoError(t, err)
	assert.Equal(t, m.Rate(1), rate)
	assert.Positive(t, rate)

	_, err = (&Candidate{Kind: Kind(42)}).Rate(1)
	assert.Error(t, err)
}
