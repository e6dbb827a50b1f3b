// Package stats provides the numeric helpers shared by scaling, outlier
// and imputation operations. All functions operate on the non-missing
// values of a column; callers compact nulls away before calling.
package stats

import (
	"math"
	"sort"

	"golang.org/x/exp/constraints"
)

// Sum returns the sum of xs as float64.
func Sum[T constraints.Integer | constraints.Float](xs []T) float64 {
	var total float64
	for _, x := range xs {
		total += float64(x)
	}
	return total
}

// Mean returns the arithmetic mean of xs, or NaN for an empty slice.
func Mean[T constraints.Integer | constraints.Float](xs []T) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return Sum(xs) / float64(len(xs))
}

// Min returns the smallest value in xs, or NaN for an empty slice.
func Min[T constraints.Integer | constraints.Float](xs []T) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	minVal := float64(xs[0])
	for _, x := range xs[1:] {
		if float64(x) < minVal {
			minVal = float64(x)
		}
	}
	return minVal
}

// Max returns the largest value in xs, or NaN for an empty slice.
func Max[T constraints.Integer | constraints.Float](xs []T) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	maxVal := float64(xs[0])
	for _, x := range xs[1:] {
		if float64(x) > maxVal {
			maxVal = float64(x)
		}
	}
	return maxVal
}

// Std returns the sample standard deviation (ddof=1) of xs.
// Fewer than two values yield 0.
func Std(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := Mean(xs)
	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)-1))
}

// Quantile returns the q-th quantile (0 <= q <= 1) of xs using linear
// interpolation between closest ranks. NaN for an empty slice.
func Quantile(xs []float64, q float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Median returns the 0.5 quantile of xs.
func Median(xs []float64) float64 {
	return Quantile(xs, 0.5)
}

// Mode returns the most frequent value in xs; ties resolve to the
// smallest value. NaN for an empty slice.
func Mode(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	counts := make(map[float64]int, len(xs))
	for _, x := range xs {
		counts[x]++
	}
	best := math.NaN()
	bestCount := 0
	for v, c := range counts {
		if c > bestCount || (c == bestCount && v < best) {
			best = v
			bestCount = c
		}
	}
	return best
}
