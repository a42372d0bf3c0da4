package analytics

import (
	"air-quality-platform/internal/models"
)

// whiskerFactor is the IQR multiple that separates outliers from whiskers
const whiskerFactor = 1.5

// Boxplots computes the per-station five-number summary of column, in
// first-appearance station order. Missing values are ignored; a station
// without any value for column yields a row with Count zero.
func Boxplots(observations []models.AirQualityObservation, column string) []models.BoxplotStats {
	byStation := make(map[string][]float64)
	for i := range observations {
		obs := &observations[i]
		if _, ok := byStation[obs.StationID]; !ok {
			byStation[obs.StationID] = make([]float64, 0)
		}
		if v, ok := obs.Value(column); ok {
			byStation[obs.StationID] = append(byStation[obs.StationID], v)
		}
	}

	stations := Stations(observations)
	result := make([]models.BoxplotStats, 0, len(stations))
	for _, station := range stations {
		result = append(result, boxplot(station, column, byStation[station]))
	}
	return result
}

func boxplot(station, column string, values []float64) models.BoxplotStats {
	box := models.BoxplotStats{
		Station:  station,
		Column:   column,
		Count:    len(values),
		Outliers: make([]float64, 0),
	}
	if len(values) == 0 {
		return box
	}

	sorted := sortedCopy(values)
	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	lower := q1 - whiskerFactor*iqr
	upper := q3 + whiskerFactor*iqr

	// the median always lies inside the fences, so both whiskers get set
	var whiskerLow, whiskerHigh float64
	inside := false
	for _, v := range sorted {
		if v < lower || v > upper {
			box.Outliers = append(box.Outliers, v)
			continue
		}
		if !inside {
			whiskerLow = v
			inside = true
		}
		whiskerHigh = v
	}

	box.Min = models.Nullable(sorted[0])
	box.Q1 = models.Nullable(q1)
	box.Median = models.Nullable(quantile(sorted, 0.5))
	box.Q3 = models.Nullable(q3)
	box.Max = models.Nullable(sorted[len(sorted)-1])
	box.IQR = models.Nullable(iqr)
	box.LowerFence = models.Nullable(lower)
	box.UpperFence = models.Nullable(upper)
	box.WhiskerLow = models.Nullable(whiskerLow)
	box.WhiskerHigh = models.Nullable(whiskerHigh)

	return box
}
