package models

import (
	"fmt"
	"math"
	"time"
)

// Measurement column names as they appear in the combined dataset
const (
	ColumnPM25 = "PM2.5"
	ColumnPM10 = "PM10"
	ColumnSO2  = "SO2"
	ColumnNO2  = "NO2"
	ColumnCO   = "CO"
	ColumnO3   = "O3"
	ColumnTEMP = "TEMP"
	ColumnPRES = "PRES"
	ColumnDEWP = "DEWP"
	ColumnRAIN = "RAIN"
	ColumnWSPM = "WSPM"
)

// PollutantColumns lists the concentration columns; values must be non-negative
var PollutantColumns = []string{ColumnPM25, ColumnPM10, ColumnSO2, ColumnNO2, ColumnCO, ColumnO3}

// WeatherColumns lists the meteorological columns
var WeatherColumns = []string{ColumnTEMP, ColumnPRES, ColumnDEWP, ColumnRAIN, ColumnWSPM}

// MeasurementColumns is the fixed column order used by the correlation matrix
var MeasurementColumns = []string{
	ColumnPM25, ColumnPM10, ColumnSO2, ColumnNO2, ColumnCO, ColumnO3,
	ColumnTEMP, ColumnPRES, ColumnDEWP, ColumnRAIN, ColumnWSPM,
}

// DescribeColumns is the numeric column order of the summary table
var DescribeColumns = append([]string{"year", "month", "day", "hour"}, MeasurementColumns...)

// IsMeasurementColumn reports whether name is one of the eleven measurement columns
func IsMeasurementColumn(name string) bool {
	for _, c := range MeasurementColumns {
		if c == name {
			return true
		}
	}
	return false
}

// AirQualityStation represents a monitoring station
type AirQualityStation struct {
	StationID string    `json:"station_id" db:"station_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// AirQualityObservation is one row of the combined dataset.
// Missing measurements are nil.
type AirQualityObservation struct {
	ID            int64     `json:"-" db:"id"`
	StationID     string    `json:"station" db:"station_id"`
	Year          int       `json:"year" db:"year"`
	Month         int       `json:"month" db:"month"`
	Day           int       `json:"day" db:"day"`
	Hour          int       `json:"hour" db:"hour"`
	Date          time.Time `json:"date" db:"observation_date"`
	PM25          *float64  `json:"PM2.5" db:"pm25"`
	PM10          *float64  `json:"PM10" db:"pm10"`
	SO2           *float64  `json:"SO2" db:"so2"`
	NO2           *float64  `json:"NO2" db:"no2"`
	CO            *float64  `json:"CO" db:"co"`
	O3            *float64  `json:"O3" db:"o3"`
	TEMP          *float64  `json:"TEMP" db:"temp"`
	PRES          *float64  `json:"PRES" db:"pres"`
	DEWP          *float64  `json:"DEWP" db:"dewp"`
	RAIN          *float64  `json:"RAIN" db:"rain"`
	WSPM          *float64  `json:"WSPM" db:"wspm"`
	WindDirection string    `json:"wd,omitempty" db:"wind_direction"`
}

// Measurement returns a pointer to the named measurement field, or nil for unknown names
func (o *AirQualityObservation) Measurement(column string) *float64 {
	switch column {
	case ColumnPM25:
		return o.PM25
	case ColumnPM10:
		return o.PM10
	case ColumnSO2:
		return o.SO2
	case ColumnNO2:
		return o.NO2
	case ColumnCO:
		return o.CO
	case ColumnO3:
		return o.O3
	case ColumnTEMP:
		return o.TEMP
	case ColumnPRES:
		return o.PRES
	case ColumnDEWP:
		return o.DEWP
	case ColumnRAIN:
		return o.RAIN
	case ColumnWSPM:
		return o.WSPM
	}
	return nil
}

// Value returns the numeric value of any describe column and whether it is present
func (o *AirQualityObservation) Value(column string) (float64, bool) {
	switch column {
	case "year":
		return float64(o.Year), true
	case "month":
		return float64(o.Month), true
	case "day":
		return float64(o.Day), true
	case "hour":
		return float64(o.Hour), true
	}
	if v := o.Measurement(column); v != nil {
		return *v, true
	}
	return 0, false
}

func (o *AirQualityObservation) setMeasurement(column string, v *float64) {
	switch column {
	case ColumnPM25:
		o.PM25 = v
	case ColumnPM10:
		o.PM10 = v
	case ColumnSO2:
		o.SO2 = v
	case ColumnNO2:
		o.NO2 = v
	case ColumnCO:
		o.CO = v
	case ColumnO3:
		o.O3 = v
	case ColumnTEMP:
		o.TEMP = v
	case ColumnPRES:
		o.PRES = v
	case ColumnDEWP:
		o.DEWP = v
	case ColumnRAIN:
		o.RAIN = v
	case ColumnWSPM:
		o.WSPM = v
	}
}

// RawAirQualityRecord represents a single row read from the combined CSV
// NaN marks a missing measurement
type RawAirQualityRecord struct {
	Station       string
	Year          int
	Month         int
	Day           int
	Hour          int
	WindDirection string
	Values        map[string]float64
}

// ToObservation converts RawAirQualityRecord to AirQualityObservation.
// The (year, month, day) triple must name a real calendar date.
func (r *RawAirQualityRecord) ToObservation() (*AirQualityObservation, error) {
	if r.Station == "" {
		return nil, &ValidationError{
			Field:   "station",
			Value:   "",
			Message: "station identifier is empty",
		}
	}

	date, err := CalendarDate(r.Year, r.Month, r.Day)
	if err != nil {
		return nil, err
	}

	if r.Hour < 0 || r.Hour > 23 {
		return nil, &ValidationError{
			Field:   "hour",
			Value:   fmt.Sprint(r.Hour),
			Message: "hour must be between 0 and 23",
		}
	}

	obs := &AirQualityObservation{
		StationID:     r.Station,
		Year:          r.Year,
		Month:         r.Month,
		Day:           r.Day,
		Hour:          r.Hour,
		Date:          date,
		WindDirection: r.WindDirection,
	}

	for _, column := range MeasurementColumns {
		v, ok := r.Values[column]
		if !ok || math.IsNaN(v) {
			continue
		}
		if math.IsInf(v, 0) {
			return nil, &ValidationError{
				Field:   column,
				Value:   fmt.Sprint(v),
				Message: fmt.Sprintf("non-finite reading for %s", column),
			}
		}
		if isPollutant(column) && v < 0 {
			return nil, &ValidationError{
				Field:   column,
				Value:   fmt.Sprint(v),
				Message: fmt.Sprintf("negative concentration for %s", column),
			}
		}
		value := v
		obs.setMeasurement(column, &value)
	}

	return obs, nil
}

func isPollutant(column string) bool {
	for _, c := range PollutantColumns {
		if c == column {
			return true
		}
	}
	return false
}

// CalendarDate builds a UTC midnight date and rejects triples that time.Date would normalise
func CalendarDate(year, month, day int) (time.Time, error) {
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Year() != year || int(date.Month()) != month || date.Day() != day {
		return time.Time{}, &ValidationError{
			Field:   "date",
			Value:   fmt.Sprintf("%04d-%02d-%02d", year, month, day),
			Message: "year, month and day do not form a calendar date",
		}
	}
	return date, nil
}

// ValidationError represents a data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
