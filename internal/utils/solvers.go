package utils

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrNotBracketed  = errors.New("root is not bracketed")
	ErrNoConvergence = errors.New("root finder did not converge")
)

// Brent finds a root of f in [a, b] to within absTol + relTol*|x|.
// f(a) and f(b) must have opposite signs (or one of them must be zero).
func Brent(f func(float64) float64, a, b, absTol, relTol float64, maxIter int) (float64, error) {
	fa, fb := f(a), f(b)
	if fa == 0 {
		return a, nil
	}
	if fb == 0 {
		return b, nil
	}
	if math.IsNaN(fa) || math.IsNaN(fb) {
		return math.NaN(), fmt.Errorf("brent on [%g, %g]: %w", a, b, ErrNotBracketed)
	}
	if (fa > 0) == (fb > 0) {
		return math.NaN(), fmt.Errorf("brent on [%g, %g], f = (%g, %g): %w", a, b, fa, fb, ErrNotBracketed)
	}

	c, fc := a, fa
	d := b - a
	e := d
	for range maxIter {
		if (fb > 0) == (fc > 0) {
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}
		tol := 0.5 * (absTol + relTol*math.Abs(b))
		m := 0.5 * (c - b)
		if math.Abs(m) <= tol || fb == 0 {
			return b, nil
		}

		if math.Abs(e) >= tol && math.Abs(fa) > math.Abs(fb) {
			// inverse quadratic interpolation, secant when a == c
			var p, q float64
			s := fb / fa
			if a == c {
				p = 2 * m * s
				q = 1 - s
			} else {
				q = fa / fc
				r := fb / fc
				p = s * (2*m*q*(q-r) - (b-a)*(r-1))
				q = (q - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			} else {
				p = -p
			}
			if 2*p < min(3*m*q-math.Abs(tol*q), math.Abs(e*q)) {
				e = d
				d = p / q
			} else {
				d = m
				e = d
			}
		} else {
			d = m
			e = d
		}

		a, fa = b, fb
		if math.Abs(d) > tol {
			b += d
		} else {
			b += math.Copysign(tol, m)
		}
		fb = f(b)
	}
	return b, fmt.Errorf("brent after %d iterations: %w", maxIter, ErrNoConvergence)
}
