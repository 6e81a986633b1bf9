package utils

import (
	"math"
	"slices"

	"golang.org/x/exp/constraints"

	"github.com/wildstyl3r/remc/internal/constants"
)

type Number interface {
	constraints.Float | constraints.Integer
}

func SumSlice[T Number](arr []T) (r T) {
	for i := range arr {
		r += arr[i]
	}
	return
}

func Average[T Number](s []T) (mean float64) {
	for i := range s {
		mean += float64(s[i])
	}
	mean /= float64(len(s))
	return
}

func MeanAndVariance[T Number](s []T, unbiased bool) (mean, variance float64) {
	mean = Average(s)
	if len(s) < 2 {
		return mean, 0
	}
	for i := range s {
		variance += (float64(s[i]) - mean) * (float64(s[i]) - mean)
	}
	if unbiased {
		variance /= float64(len(s) - 1)
	} else {
		variance /= float64(len(s))
	}

	return
}

// Linspace returns n points evenly spaced over [start, stop], both ends included.
func Linspace[T constraints.Float](start, stop T, n int) []T {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []T{start}
	}
	points := make([]T, n)
	step := (stop - start) / T(n-1)
	for i := range points {
		points[i] = start + T(i)*step
	}
	points[n-1] = stop
	return points
}

// SearchSorted returns i such that sorted[i] <= x < sorted[i+1], clamped to [0, len(sorted)-2].
func SearchSorted(sorted []float64, x float64) int {
	i, _ := slices.BinarySearch(sorted, x)
	if i > 0 && (i == len(sorted) || sorted[i] > x) {
		i--
	}
	return min(max(i, 0), len(sorted)-2)
}

func IntAbs(a int) int {
	if a < 0 {
		return -a
	} else {
		return a
	}

}

func Intersect(a, b []string) *string {
	for i := range a {
		if slices.Contains(b, a[i]) {
			return &a[i]
		}
	}
	return nil
}

func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// KeV2Dimensionless converts kinetic energy in keV to units of m_e c^2.
func KeV2Dimensionless(val float64) float64 {
	return val / constants.EnergyUnitsKeV
}
