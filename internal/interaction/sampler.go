package interaction

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/wildstyl3r/remc/internal/utils"
)

var ErrNonFiniteRate = errors.New("interaction rate is not finite")

type ErrorFlag int

const (
	FlagNone       ErrorFlag = iota
	FlagShrinkNext           // accept, but halve the next timestep
	FlagRedo                 // halve this timestep and sample again
)

const NoInteraction = -1

type Verdict struct {
	Time      float64 // time from the start of the step; 2*timestep when nothing happens
	Candidate int     // index into the candidate slice, NoInteraction when nothing happens
	Flag      ErrorFlag
	Count     int     // drawn number of interactions in the step
	Expected  float64 // mean number of interactions in the step
}

func (v Verdict) Interacts() bool {
	return v.Candidate != NoInteraction
}

type Sampler struct {
	LowerBound      float64
	UpperBound      float64
	NegligibleCount float64 // candidates expecting fewer interactions are not error checked

	rng *rand.Rand
}

func NewSampler(rng *rand.Rand) *Sampler {
	return &Sampler{
		LowerBound:      0.1,
		UpperBound:      0.2,
		NegligibleCount: 1e-3,
		rng:             rng,
	}
}

// quadratic is r(u) = a + b*u + c*u^2 on u in [0, 1]
type quadratic struct {
	a, b, c float64
}

func fitQuadratic(r0, rm, r1 float64) quadratic {
	return quadratic{
		a: r0,
		b: 4*rm - 3*r0 - r1,
		c: 2*r0 - 4*rm + 2*r1,
	}
}

func (q quadratic) integral(u float64) float64 {
	return u * (q.a + u*(q.b/2+u*q.c/3))
}

func (q *quadratic) add(o quadratic) {
	q.a += o.a
	q.b += o.b
	q.c += o.c
}

// Sample decides whether one of candidates interacts during a step of length
// timestep, given the kinetic energy at its start, middle and end.
func (s *Sampler) Sample(energyStart, energyMid, energyEnd, timestep float64, candidates []Candidate) (Verdict, error) {
	verdict := Verdict{Time: 2 * timestep, Candidate: NoInteraction}

	var total quadratic
	expected := make([]float64, len(candidates))
	for i := range candidates {
		var rates [3]float64
		for j, energy := range [3]float64{energyStart, energyMid, energyEnd} {
			rate, err := candidates[i].Rate(energy)
			if err != nil {
				return verdict, err
			}
			if !utils.IsFinite(rate) {
				return verdict, fmt.Errorf("candidate %q at energy %g: %w", candidates[i].Name, energy, ErrNonFiniteRate)
			}
			rates[j] = rate
		}
		if rates[0] < 0 || rates[1] < 0 || rates[2] < 0 {
			continue
		}

		q := fitQuadratic(rates[0], rates[1], rates[2])
		expected[i] = timestep * q.integral(1)
		if expected[i] <= 0 {
			expected[i] = 0
			continue
		}
		total.add(q)
		verdict.Expected += expected[i]

		if expected[i] >= s.NegligibleCount {
			verdict.Flag = max(verdict.Flag, s.flag(rates[0], rates[1], rates[2]))
		}
	}

	if verdict.Expected <= 0 {
		return verdict, nil
	}
	verdict.Count = int(distuv.Poisson{Lambda: verdict.Expected, Src: s.rng}.Rand())
	if verdict.Count == 0 {
		return verdict, nil
	}

	choice := s.rng.Float64() * verdict.Expected
	for i := range expected {
		if expected[i] == 0 {
			continue
		}
		verdict.Candidate = i
		choice -= expected[i]
		if choice < 0 {
			break
		}
	}

	first := 1.
	for range verdict.Count {
		first = min(first, s.rng.Float64())
	}
	norm := total.integral(1)
	u, err := utils.Brent(func(u float64) float64 {
		return total.integral(u)/norm - first
	}, 0, 1, 1e-9, 1e-9, 100)
	if err != nil {
		return verdict, fmt.Errorf("interaction time: %w", err)
	}
	verdict.Time = u * timestep
	return verdict, nil
}

func (s *Sampler) flag(r0, rm, r1 float64) ErrorFlag {
	linear := (r0 + r1) / 2
	var deviation float64
	switch {
	case linear > 0:
		deviation = math.Abs(rm-linear) / linear
	case rm > 0:
		deviation = math.Inf(1)
	}
	switch {
	case deviation > s.UpperBound:
		return FlagRedo
	case deviation > s.LowerBound:
		return FlagShrinkNext
	}
	return FlagNone
}
