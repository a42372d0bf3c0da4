package dataset

import (
	"errors"

	"air-quality-platform/internal/analytics"
	"air-quality-platform/internal/models"
)

// ErrEmptyDataset is returned when a source yields no valid observation
var ErrEmptyDataset = errors.New("dataset contains no valid observations")

// Dataset is the process-wide observation table. It is built once and never
// modified afterwards, so it is safe for concurrent readers without locking.
type Dataset struct {
	observations []models.AirQualityObservation
	stations     []string
	bounds       models.DateBounds
	source       string
}

// New wraps observations into a Dataset; the slice must not be modified by the caller afterwards
func New(observations []models.AirQualityObservation, source string) (*Dataset, error) {
	bounds, ok := analytics.Bounds(observations)
	if !ok {
		return nil, ErrEmptyDataset
	}

	return &Dataset{
		observations: observations,
		stations:     analytics.Stations(observations),
		bounds:       bounds,
		source:       source,
	}, nil
}

// Observations returns the full table. Callers must treat it as read-only.
func (d *Dataset) Observations() []models.AirQualityObservation {
	return d.observations
}

// Stations returns the distinct station identifiers in first-appearance order
func (d *Dataset) Stations() []string {
	return append([]string(nil), d.stations...)
}

// Bounds returns the earliest and latest observation dates
func (d *Dataset) Bounds() models.DateBounds {
	return d.bounds
}

// Len returns the number of observations
func (d *Dataset) Len() int {
	return len(d.observations)
}

// Source describes where the dataset was loaded from
func (d *Dataset) Source() string {
	return d.source
}

// HasStation reports whether station appears in the dataset
func (d *Dataset) HasStation(station string) bool {
	for _, s := range d.stations {
		if s == station {
			return true
		}
	}
	return false
}
