package dataset

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"air-quality-platform/internal/models"
)

// Column names of the combined CSV besides the measurement columns
const (
	ColumnStation       = "station"
	ColumnYear          = "year"
	ColumnMonth         = "month"
	ColumnDay           = "day"
	ColumnHour          = "hour"
	ColumnWindDirection = "wd"
)

// RequiredColumns must be present in every combined CSV
var RequiredColumns = []string{ColumnStation, ColumnYear, ColumnMonth, ColumnDay}

// MissingMarkers are the cell values read as a missing measurement
var MissingMarkers = []string{"NA", "NaN", "nan", ""}

// RowError describes a CSV row that could not be turned into a raw record
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ReadCSV parses the combined air quality CSV. Rows whose date parts are
// missing or not integral are reported as RowErrors and skipped; structural
// problems (unreadable input, missing required columns) fail the whole read.
func ReadCSV(r io.Reader) ([]models.RawAirQualityRecord, []*RowError, error) {
	types := map[string]series.Type{
		ColumnStation:       series.String,
		ColumnWindDirection: series.String,
		ColumnYear:          series.Float,
		ColumnMonth:         series.Float,
		ColumnDay:           series.Float,
		ColumnHour:          series.Float,
	}
	for _, c := range models.MeasurementColumns {
		types[c] = series.Float
	}

	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.WithTypes(types),
		dataframe.NaNValues(MissingMarkers),
	)
	if df.Err != nil {
		return nil, nil, fmt.Errorf("failed to read csv: %w", df.Err)
	}

	present := make(map[string]bool)
	for _, name := range df.Names() {
		present[name] = true
	}
	var missing []string
	for _, c := range RequiredColumns {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("csv is missing required columns: %s", strings.Join(missing, ", "))
	}

	nrow := df.Nrow()
	stations := df.Col(ColumnStation).Records()
	years := df.Col(ColumnYear).Float()
	months := df.Col(ColumnMonth).Float()
	days := df.Col(ColumnDay).Float()

	var hours []float64
	if present[ColumnHour] {
		hours = df.Col(ColumnHour).Float()
	}
	var windDirections []string
	if present[ColumnWindDirection] {
		windDirections = df.Col(ColumnWindDirection).Records()
	}

	measurements := make(map[string][]float64)
	for _, c := range models.MeasurementColumns {
		if present[c] {
			measurements[c] = df.Col(c).Float()
		}
	}

	records := make([]models.RawAirQualityRecord, 0, nrow)
	var rowErrors []*RowError

	for i := 0; i < nrow; i++ {
		// data rows start on line 2 of the file
		line := i + 2

		year, errY := wholeNumber(ColumnYear, years[i])
		month, errM := wholeNumber(ColumnMonth, months[i])
		day, errD := wholeNumber(ColumnDay, days[i])
		if err := firstError(errY, errM, errD); err != nil {
			rowErrors = append(rowErrors, &RowError{Row: line, Err: err})
			continue
		}

		hour := 0
		if hours != nil && !math.IsNaN(hours[i]) {
			h, err := wholeNumber(ColumnHour, hours[i])
			if err != nil {
				rowErrors = append(rowErrors, &RowError{Row: line, Err: err})
				continue
			}
			hour = h
		}

		station := strings.TrimSpace(stations[i])
		if isMissingMarker(station) {
			station = ""
		}

		record := models.RawAirQualityRecord{
			Station: station,
			Year:    year,
			Month:   month,
			Day:     day,
			Hour:    hour,
			Values:  make(map[string]float64, len(measurements)),
		}
		if windDirections != nil && !isMissingMarker(windDirections[i]) {
			record.WindDirection = windDirections[i]
		}
		for c, values := range measurements {
			record.Values[c] = values[i]
		}

		records = append(records, record)
	}

	return records, rowErrors, nil
}

func wholeNumber(column string, v float64) (int, error) {
	if math.IsNaN(v) {
		return 0, fmt.Errorf("%s is missing", column)
	}
	if v != math.Trunc(v) {
		return 0, fmt.Errorf("%s is not a whole number: %v", column, v)
	}
	return int(v), nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func isMissingMarker(s string) bool {
	for _, m := range MissingMarkers {
		if s == m {
			return true
		}
	}
	return false
}
