// Package correlate computes Pearson correlation between metric series so
// the UI can surface "these two things moved together" without the user
// having to eyeball overlaid graphs.
package correlate

import (
	"math"
	"sort"

	"github.com/domalab/ttop/daemon/services/simd"
)

// Strength buckets a correlation coefficient's absolute value into a
// human label.
type Strength int

const (
	StrengthNone Strength = iota
	StrengthWeak
	StrengthModerate
	StrengthStrong
)

func (s Strength) String() string {
	switch s {
	case StrengthStrong:
		return "strong"
	case StrengthModerate:
		return "moderate"
	case StrengthWeak:
		return "weak"
	default:
		return "none"
	}
}

// ClassifyStrength buckets |r| per the conventional bands: >=0.8 strong,
// >=0.5 moderate, >=0.2 weak, else none.
func ClassifyStrength(r float64) Strength {
	abs := math.Abs(r)
	switch {
	case abs >= 0.8:
		return StrengthStrong
	case abs >= 0.5:
		return StrengthModerate
	case abs >= 0.2:
		return StrengthWeak
	default:
		return StrengthNone
	}
}

// Pearson computes the Pearson correlation coefficient between two
// equal-length series. Returns 0 if either series has zero variance or
// the series differ in length.
func Pearson(a, b []float64) float64 {
	n := len(a)
	if n == 0 || n != len(b) {
		return 0
	}

	meanA := simd.ComputeStatistics(a).Mean
	meanB := simd.ComputeStatistics(b).Mean

	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}

	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}

// Pair is one entry of a correlation matrix: the two series' labels plus
// their coefficient and strength band.
type Pair struct {
	SeriesA     string
	SeriesB     string
	Coefficient float64
	Strength    Strength
}

// Matrix computes the Pearson coefficient for every distinct pair among
// the named series, an O(N^2 * L) computation over N series of length L.
func Matrix(series map[string][]float64) []Pair {
	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)

	var pairs []Pair
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			r := Pearson(series[names[i]], series[names[j]])
			pairs = append(pairs, Pair{
				SeriesA:     names[i],
				SeriesB:     names[j],
				Coefficient: r,
				Strength:    ClassifyStrength(r),
			})
		}
	}
	return pairs
}

// TopCorrelations returns the k pairs with the largest |coefficient|,
// strongest first.
func TopCorrelations(pairs []Pair, k int) []Pair {
	sorted := make([]Pair, len(pairs))
	copy(sorted, pairs)
	sort.Slice(sorted, func(i, j int) bool {
		return math.Abs(sorted[i].Coefficient) > math.Abs(sorted[j].Coefficient)
	})
	if k > len(sorted) {
		k = len(sorted)
	}
	return sorted[:k]
}

// CrossCorrelation computes Pearson(a, b shifted by lag) for every lag in
// [-maxLag, maxLag], returning the lag (in samples) at which the two
// series correlate most strongly and that coefficient.
func CrossCorrelation(a, b []float64, maxLag int) (bestLag int, bestCoefficient float64) {
	for lag := -maxLag; lag <= maxLag; lag++ {
		var sa, sb []float64
		switch {
		case lag < 0:
			shift := -lag
			if shift >= len(a) {
				continue
			}
			sa = a[shift:]
			sb = b[:len(b)-shift]
		case lag > 0:
			if lag >= len(b) {
				continue
			}
			sa = a[:len(a)-lag]
			sb = b[lag:]
		default:
			sa = a
			sb = b
		}
		n := len(sa)
		if n > len(sb) {
			n = len(sb)
		}
		if n == 0 {
			continue
		}
		r := Pearson(sa[:n], sb[:n])
		if math.Abs(r) > math.Abs(bestCoefficient) {
			bestCoefficient = r
			bestLag = lag
		}
	}
	return bestLag, bestCoefficient
}
