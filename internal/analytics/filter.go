package analytics

import (
	"sort"
	"time"

	"air-quality-platform/internal/models"
)

// Filter returns the observations whose date lies in the inclusive range and
// whose station is selected. Input order is preserved. An empty selection or
// a range with start after end yields an empty table.
func Filter(observations []models.AirQualityObservation, dateRange models.DateRange, stations []string) []models.AirQualityObservation {
	result := make([]models.AirQualityObservation, 0)

	start := truncateDay(dateRange.Start)
	end := truncateDay(dateRange.End)
	if len(stations) == 0 || start.After(end) {
		return result
	}

	selected := make(map[string]struct{}, len(stations))
	for _, s := range stations {
		selected[s] = struct{}{}
	}

	for _, obs := range observations {
		if _, ok := selected[obs.StationID]; !ok {
			continue
		}
		date := truncateDay(obs.Date)
		if date.Before(start) || date.After(end) {
			continue
		}
		result = append(result, obs)
	}

	return result
}

// Stations returns the distinct station identifiers in first-appearance order
func Stations(observations []models.AirQualityObservation) []string {
	seen := make(map[string]struct{})
	stations := make([]string, 0)
	for _, obs := range observations {
		if _, ok := seen[obs.StationID]; ok {
			continue
		}
		seen[obs.StationID] = struct{}{}
		stations = append(stations, obs.StationID)
	}
	return stations
}

// SortedStations returns the distinct station identifiers in ascending order
func SortedStations(observations []models.AirQualityObservation) []string {
	stations := Stations(observations)
	sort.Strings(stations)
	return stations
}

// Bounds returns the earliest and latest observation dates; ok is false for an empty table
func Bounds(observations []models.AirQualityObservation) (bounds models.DateBounds, ok bool) {
	for i, obs := range observations {
		date := truncateDay(obs.Date)
		if i == 0 || date.Before(bounds.Min) {
			bounds.Min = date
		}
		if i == 0 || date.After(bounds.Max) {
			bounds.Max = date
		}
	}
	return bounds, len(observations) > 0
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
