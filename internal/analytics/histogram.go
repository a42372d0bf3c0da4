package analytics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"air-quality-platform/internal/models"
)

// SturgesBins returns ceil(log2 n) + 1, the default bin count for n values
func SturgesBins(n int) int {
	if n <= 1 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(n)))) + 1
}

// Histogram counts the present values of column in equal-width bins that
// span [min, max]. A non-positive bins selects SturgesBins.
func Histogram(observations []models.AirQualityObservation, column string, bins int) models.Histogram {
	hist := models.Histogram{Column: column, Bins: make([]models.HistogramBin, 0)}

	values := presentValues(observations, column)
	hist.Count = len(values)
	if len(values) == 0 {
		return hist
	}

	sorted := sortedCopy(values)
	lo, hi := sorted[0], sorted[len(sorted)-1]

	if bins <= 0 {
		bins = SturgesBins(len(values))
	}
	if lo == hi {
		hist.Bins = append(hist.Bins, models.HistogramBin{Lower: lo, Upper: hi, Count: len(values)})
		return hist
	}

	edges := floats.Span(make([]float64, bins+1), lo, hi)

	// stat.Histogram treats the last divider as exclusive
	dividers := append([]float64(nil), edges...)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, sorted, nil)
	for i, c := range counts {
		hist.Bins = append(hist.Bins, models.HistogramBin{
			Lower: edges[i],
			Upper: edges[i+1],
			Count: int(c),
		})
	}

	return hist
}
