package analytics

import (
	"math"
	"sort"
	"time"

	"air-quality-platform/internal/models"
)

// DefaultPollutionThreshold is the PM2.5 concentration (µg/m³) above which a
// record counts towards a station's Frequency.
const DefaultPollutionThreshold = 35.0

type stationAccumulator struct {
	maxDate   time.Time
	frequency int
	pm25      []float64
	pm10      []float64
}

// RankStations builds the recency/frequency/monetary summary of every station
// and orders it by RFM score, highest first.
//
// Recency is the number of days between the dataset's latest date and the
// station's latest date. Frequency counts records with PM2.5 above threshold.
// Monetary is the mean of the station's average PM2.5 and average PM10 and is
// undefined when either average is. The score is the plain sum of the three.
// Ties keep station identifier order; undefined scores sort last.
func RankStations(observations []models.AirQualityObservation, threshold float64) []models.StationSummary {
	summaries := make([]models.StationSummary, 0)

	global, ok := Bounds(observations)
	if !ok {
		return summaries
	}

	accs := make(map[string]*stationAccumulator)
	for i := range observations {
		obs := &observations[i]
		acc, ok := accs[obs.StationID]
		if !ok {
			acc = &stationAccumulator{}
			accs[obs.StationID] = acc
		}

		date := truncateDay(obs.Date)
		if date.After(acc.maxDate) {
			acc.maxDate = date
		}
		if obs.PM25 != nil {
			acc.pm25 = append(acc.pm25, *obs.PM25)
			if *obs.PM25 > threshold {
				acc.frequency++
			}
		}
		if obs.PM10 != nil {
			acc.pm10 = append(acc.pm10, *obs.PM10)
		}
	}

	for _, station := range SortedStations(observations) {
		acc := accs[station]

		recency := int(global.Max.Sub(acc.maxDate).Hours() / 24)
		monetary := (mean(acc.pm25) + mean(acc.pm10)) / 2
		score := float64(recency) + float64(acc.frequency) + monetary

		summaries = append(summaries, models.StationSummary{
			Station:   station,
			Recency:   recency,
			Frequency: acc.frequency,
			Monetary:  models.Nullable(monetary),
			RFMScore:  models.Nullable(score),
			MaxDate:   acc.maxDate.Format("2006-01-02"),
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return scoreKey(summaries[i]) > scoreKey(summaries[j])
	})

	return summaries
}

// scoreKey maps an undefined score below every defined one
func scoreKey(s models.StationSummary) float64 {
	if s.RFMScore == nil {
		return math.Inf(-1)
	}
	return *s.RFMScore
}
