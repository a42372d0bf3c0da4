package analytics

import (
	"math"
	"sort"

	"air-quality-platform/internal/models"
)

// presentValues collects the non-missing values of column in input order
func presentValues(observations []models.AirQualityObservation, column string) []float64 {
	values := make([]float64, 0, len(observations))
	for i := range observations {
		if v, ok := observations[i].Value(column); ok {
			values = append(values, v)
		}
	}
	return values
}

// sortedCopy returns an ascending copy of values
func sortedCopy(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted
}

// quantile computes the p-quantile of ascending data with linear interpolation
// between closest ranks (the default of numpy and pandas). Empty input is NaN.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}

	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
