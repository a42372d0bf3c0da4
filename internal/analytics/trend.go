package analytics

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"air-quality-platform/internal/models"
)

type period struct {
	year  int
	month int
}

func (p period) less(o period) bool {
	if p.year != o.year {
		return p.year < o.year
	}
	return p.month < o.month
}

func (p period) String() string {
	if p.month == 0 {
		return fmt.Sprintf("%04d", p.year)
	}
	return fmt.Sprintf("%04d-%02d", p.year, p.month)
}

// bucket accumulates the present PM2.5 and PM10 values of one group
type bucket struct {
	count int
	pm25  []float64
	pm10  []float64
}

func (b *bucket) add(obs *models.AirQualityObservation) {
	b.count++
	if obs.PM25 != nil {
		b.pm25 = append(b.pm25, *obs.PM25)
	}
	if obs.PM10 != nil {
		b.pm10 = append(b.pm10, *obs.PM10)
	}
}

// mean is the arithmetic mean of present values, NaN when none are present
func mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return stat.Mean(values, nil)
}

// MonthlyTrend averages PM2.5 and PM10 per calendar month in ascending order
func MonthlyTrend(observations []models.AirQualityObservation) []models.TrendPoint {
	buckets := make(map[period]*bucket)
	for i := range observations {
		obs := &observations[i]
		key := period{year: obs.Date.Year(), month: int(obs.Date.Month())}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.add(obs)
	}

	keys := make([]period, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	points := make([]models.TrendPoint, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		points = append(points, models.TrendPoint{
			Period: k.String(),
			Year:   k.year,
			Month:  k.month,
			PM25:   models.Nullable(mean(b.pm25)),
			PM10:   models.Nullable(mean(b.pm10)),
		})
	}

	return points
}

// StationTrends averages PM2.5 and PM10 per station and year, and per station
// and month. Rows are ordered by station identifier, then period.
func StationTrends(observations []models.AirQualityObservation) models.StationTrends {
	yearly := make(map[string]map[period]*bucket)
	monthly := make(map[string]map[period]*bucket)

	for i := range observations {
		obs := &observations[i]
		y := obs.Date.Year()
		m := int(obs.Date.Month())
		addToBucket(yearly, obs.StationID, period{year: y}).add(obs)
		addToBucket(monthly, obs.StationID, period{year: y, month: m}).add(obs)
	}

	stations := SortedStations(observations)
	return models.StationTrends{
		Yearly:  flattenStationBuckets(stations, yearly),
		Monthly: flattenStationBuckets(stations, monthly),
	}
}

func addToBucket(groups map[string]map[period]*bucket, station string, key period) *bucket {
	byPeriod, ok := groups[station]
	if !ok {
		byPeriod = make(map[period]*bucket)
		groups[station] = byPeriod
	}
	b, ok := byPeriod[key]
	if !ok {
		b = &bucket{}
		byPeriod[key] = b
	}
	return b
}

func flattenStationBuckets(stations []string, groups map[string]map[period]*bucket) []models.StationPeriodAverage {
	rows := make([]models.StationPeriodAverage, 0)
	for _, station := range stations {
		byPeriod := groups[station]
		keys := make([]period, 0, len(byPeriod))
		for k := range byPeriod {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

		for _, k := range keys {
			b := byPeriod[k]
			rows = append(rows, models.StationPeriodAverage{
				Station: station,
				Period:  k.String(),
				Year:    k.year,
				Month:   k.month,
				Count:   b.count,
				PM25:    models.Nullable(mean(b.pm25)),
				PM10:    models.Nullable(mean(b.pm10)),
			})
		}
	}
	return rows
}
