package analytics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"air-quality-platform/internal/models"
)

// Describe computes count, mean, sample standard deviation, min, quartiles
// and max for every numeric column. Missing values are skipped. An empty
// table produces an empty summary.
func Describe(observations []models.AirQualityObservation) []models.DescribeRow {
	rows := make([]models.DescribeRow, 0, len(models.DescribeColumns))
	if len(observations) == 0 {
		return rows
	}

	for _, column := range models.DescribeColumns {
		values := presentValues(observations, column)
		rows = append(rows, describeValues(column, values))
	}

	return rows
}

func describeValues(column string, values []float64) models.DescribeRow {
	row := models.DescribeRow{Column: column, Count: len(values)}
	if len(values) == 0 {
		return row
	}

	sorted := sortedCopy(values)

	std := math.NaN()
	if len(values) > 1 {
		std = stat.StdDev(values, nil)
	}

	row.Mean = models.Nullable(stat.Mean(values, nil))
	row.Std = models.Nullable(std)
	row.Min = models.Nullable(sorted[0])
	row.Q1 = models.Nullable(quantile(sorted, 0.25))
	row.Median = models.Nullable(quantile(sorted, 0.5))
	row.Q3 = models.Nullable(quantile(sorted, 0.75))
	row.Max = models.Nullable(sorted[len(sorted)-1])

	return row
}
