package models

import (
	"math"
	"time"
)

// Nullable converts NaN to nil so undefined statistics encode as JSON null
func Nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// DateRange is an inclusive calendar date interval
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DateBounds holds the earliest and latest observation dates of a dataset
type DateBounds struct {
	Min time.Time `json:"min_date"`
	Max time.Time `json:"max_date"`
}

// StationSummary is one row of the station ranking
type StationSummary struct {
	Station   string   `json:"station"`
	Recency   int      `json:"recency"`
	Frequency int      `json:"frequency"`
	Monetary  *float64 `json:"monetary"`
	RFMScore  *float64 `json:"rfm_score"`
	MaxDate   string   `json:"max_date"`
}

// DescribeRow holds count/mean/std/min/quartiles/max for one numeric column
type DescribeRow struct {
	Column string   `json:"column"`
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean"`
	Std    *float64 `json:"std"`
	Min    *float64 `json:"min"`
	Q1     *float64 `json:"25%"`
	Median *float64 `json:"50%"`
	Q3     *float64 `json:"75%"`
	Max    *float64 `json:"max"`
}

// TrendPoint is the PM2.5/PM10 average of one calendar month
type TrendPoint struct {
	Period string   `json:"period"`
	Year   int      `json:"year"`
	Month  int      `json:"month"`
	PM25   *float64 `json:"PM2.5"`
	PM10   *float64 `json:"PM10"`
}

// StationPeriodAverage is a per-station PM2.5/PM10 average over a year or a month.
// Month is zero for yearly buckets.
type StationPeriodAverage struct {
	Station string   `json:"station"`
	Period  string   `json:"period"`
	Year    int      `json:"year"`
	Month   int      `json:"month,omitempty"`
	Count   int      `json:"count"`
	PM25    *float64 `json:"PM2.5"`
	PM10    *float64 `json:"PM10"`
}

// StationTrends groups the per-station yearly and monthly averages
type StationTrends struct {
	Yearly  []StationPeriodAverage `json:"yearly"`
	Monthly []StationPeriodAverage `json:"monthly"`
}

// HistogramBin counts values in [Lower, Upper); the last bin is closed
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram is the binned distribution of one column
type Histogram struct {
	Column string         `json:"column"`
	Count  int            `json:"count"`
	Bins   []HistogramBin `json:"bins"`
}

// CorrelationMatrix holds pairwise Pearson coefficients; nil marks an undefined coefficient
type CorrelationMatrix struct {
	Columns []string     `json:"columns"`
	Values  [][]*float64 `json:"values"`
}

// At returns the coefficient for the named pair
func (m *CorrelationMatrix) At(a, b string) *float64 {
	i, j := -1, -1
	for k, c := range m.Columns {
		if c == a {
			i = k
		}
		if c == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return nil
	}
	return m.Values[i][j]
}

// BoxplotStats is the five-number summary of one station's column with 1.5×IQR outliers
type BoxplotStats struct {
	Station     string    `json:"station"`
	Column      string    `json:"column"`
	Count       int       `json:"count"`
	Min         *float64  `json:"min"`
	Q1          *float64  `json:"q1"`
	Median      *float64  `json:"median"`
	Q3          *float64  `json:"q3"`
	Max         *float64  `json:"max"`
	IQR         *float64  `json:"iqr"`
	LowerFence  *float64  `json:"lower_fence"`
	UpperFence  *float64  `json:"upper_fence"`
	WhiskerLow  *float64  `json:"whisker_low"`
	WhiskerHigh *float64  `json:"whisker_high"`
	Outliers    []float64 `json:"outliers"`
}
