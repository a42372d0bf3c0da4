package analytics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"air-quality-platform/internal/models"
)

// Correlation computes the Pearson correlation matrix of the given columns
// using pairwise-complete observations. A pair with fewer than two joint
// observations, or with zero variance on either side, is undefined (nil).
func Correlation(observations []models.AirQualityObservation, columns []string) models.CorrelationMatrix {
	n := len(columns)
	matrix := models.CorrelationMatrix{
		Columns: append([]string(nil), columns...),
		Values:  make([][]*float64, n),
	}
	for i := range matrix.Values {
		matrix.Values[i] = make([]*float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			r := models.Nullable(pearson(observations, columns[i], columns[j]))
			matrix.Values[i][j] = r
			if i != j {
				matrix.Values[j][i] = r
			}
		}
	}

	return matrix
}

func pearson(observations []models.AirQualityObservation, a, b string) float64 {
	x := make([]float64, 0, len(observations))
	y := make([]float64, 0, len(observations))
	for i := range observations {
		va, okA := observations[i].Value(a)
		vb, okB := observations[i].Value(b)
		if !okA || !okB {
			continue
		}
		x = append(x, va)
		y = append(y, vb)
	}

	if len(x) < 2 || constant(x) || constant(y) {
		return math.NaN()
	}
	if a == b {
		return 1
	}

	r := stat.Correlation(x, y, nil)
	// rounding can push |r| marginally past 1
	return math.Max(-1, math.Min(1, r))
}

func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
