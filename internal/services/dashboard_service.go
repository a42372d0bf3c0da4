package services

import (
	"context"
	"fmt"
	"time"

	"air-quality-platform/internal/analytics"
	"air-quality-platform/internal/dataset"
	"air-quality-platform/internal/models"
	"air-quality-platform/pkg/logging"
	"air-quality-platform/pkg/metrics"
)

const dateLayout = "2006-01-02"

// DashboardFilter selects the rows shown by the filtered dashboard tables.
// Nil dates default to the dataset bounds. A nil Stations selects every
// station; a non-nil empty Stations selects none.
type DashboardFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Stations  []string
}

// UnknownColumnError is returned when a table is requested for a column that is not a measurement
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown measurement column: %q", e.Column)
}

// DashboardService serves the dashboard tables over the loaded dataset
type DashboardService struct {
	dataset   *dataset.Dataset
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
	threshold float64
	bins      int
}

// NewDashboardService creates a new dashboard service. threshold is the
// default ranking threshold and bins the default histogram bin count (0 = Sturges).
func NewDashboardService(ds *dataset.Dataset, threshold float64, bins int, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *DashboardService {
	return &DashboardService{
		dataset:   ds,
		logger:    logger,
		metrics:   metricsCollector,
		threshold: threshold,
		bins:      bins,
	}
}

// Stations returns the station identifiers in dataset order
func (s *DashboardService) Stations() []string {
	return s.dataset.Stations()
}

// Bounds returns the dataset's date bounds
func (s *DashboardService) Bounds() models.DateBounds {
	return s.dataset.Bounds()
}

// Records returns the number of loaded observations
func (s *DashboardService) Records() int {
	return s.dataset.Len()
}

// Source names where the dataset was loaded from
func (s *DashboardService) Source() string {
	return s.dataset.Source()
}

// UnknownStations returns the requested identifiers that are not in the dataset
func (s *DashboardService) UnknownStations(stations []string) []string {
	var unknown []string
	for _, station := range stations {
		if !s.dataset.HasStation(station) {
			unknown = append(unknown, station)
		}
	}
	return unknown
}

// Threshold returns the default ranking threshold
func (s *DashboardService) Threshold() float64 {
	return s.threshold
}

// Resolve fills the filter defaults in
func (s *DashboardService) Resolve(filter DashboardFilter) (models.DateRange, []string) {
	bounds := s.dataset.Bounds()
	dateRange := models.DateRange{Start: bounds.Min, End: bounds.Max}
	if filter.StartDate != nil {
		dateRange.Start = *filter.StartDate
	}
	if filter.EndDate != nil {
		dateRange.End = *filter.EndDate
	}

	stations := filter.Stations
	if stations == nil {
		stations = s.dataset.Stations()
	}

	return dateRange, stations
}

// Observations returns the filtered table
func (s *DashboardService) Observations(ctx context.Context, filter DashboardFilter) []models.AirQualityObservation {
	dateRange, stations := s.Resolve(filter)

	timer := s.metrics.AnalyticsTimer("filter", s.dataset.Len())
	filtered := analytics.Filter(s.dataset.Observations(), dateRange, stations)
	duration := timer.ObserveDuration()

	s.logger.Debug(ctx, "[DASHBOARD_FILTER] Dataset filtered", logging.Fields{
		"start_date":  dateRange.Start.Format(dateLayout),
		"end_date":    dateRange.End.Format(dateLayout),
		"stations":    len(stations),
		"rows":        len(filtered),
		"duration_ms": duration.Milliseconds(),
	})

	return filtered
}

// Summary returns the describe table of the filtered set
func (s *DashboardService) Summary(ctx context.Context, filter DashboardFilter) []models.DescribeRow {
	filtered := s.Observations(ctx, filter)
	defer s.metrics.AnalyticsTimer("summary", len(filtered)).ObserveDuration()

	return analytics.Describe(filtered)
}

// MonthlyTrend returns the monthly PM2.5/PM10 averages of the filtered set,
// or of the full dataset when all is true
func (s *DashboardService) MonthlyTrend(ctx context.Context, filter DashboardFilter, all bool) []models.TrendPoint {
	observations := s.dataset.Observations()
	if !all {
		observations = s.Observations(ctx, filter)
	}
	defer s.metrics.AnalyticsTimer("monthly_trend", len(observations)).ObserveDuration()

	return analytics.MonthlyTrend(observations)
}

// StationTrends returns per-station yearly and monthly averages over the full dataset
func (s *DashboardService) StationTrends(ctx context.Context) models.StationTrends {
	defer s.metrics.AnalyticsTimer("station_trends", s.dataset.Len()).ObserveDuration()

	return analytics.StationTrends(s.dataset.Observations())
}

// Histogram bins a measurement column of the filtered set; bins <= 0 uses the service default
func (s *DashboardService) Histogram(ctx context.Context, filter DashboardFilter, column string, bins int) (models.Histogram, error) {
	if !models.IsMeasurementColumn(column) {
		return models.Histogram{}, &UnknownColumnError{Column: column}
	}
	if bins <= 0 {
		bins = s.bins
	}

	filtered := s.Observations(ctx, filter)
	defer s.metrics.AnalyticsTimer("histogram", len(filtered)).ObserveDuration()

	return analytics.Histogram(filtered, column, bins), nil
}

// Correlation returns the Pearson matrix of the eleven measurement columns over the filtered set
func (s *DashboardService) Correlation(ctx context.Context, filter DashboardFilter) models.CorrelationMatrix {
	filtered := s.Observations(ctx, filter)
	defer s.metrics.AnalyticsTimer("correlation", len(filtered)).ObserveDuration()

	return analytics.Correlation(filtered, models.MeasurementColumns)
}

// Boxplots returns per-station boxplot statistics of column over the full dataset
func (s *DashboardService) Boxplots(ctx context.Context, column string) ([]models.BoxplotStats, error) {
	if !models.IsMeasurementColumn(column) {
		return nil, &UnknownColumnError{Column: column}
	}
	defer s.metrics.AnalyticsTimer("boxplots", s.dataset.Len()).ObserveDuration()

	return analytics.Boxplots(s.dataset.Observations(), column), nil
}

// Ranking returns the RFM station ranking over the full dataset. A nil
// threshold uses the service default.
func (s *DashboardService) Ranking(ctx context.Context, threshold *float64) []models.StationSummary {
	t := s.threshold
	if threshold != nil {
		t = *threshold
	}

	timer := s.metrics.AnalyticsTimer("ranking", s.dataset.Len())
	ranked := analytics.RankStations(s.dataset.Observations(), t)
	duration := timer.ObserveDuration()

	s.logger.Debug(ctx, "[DASHBOARD_RANKING] Stations ranked", logging.Fields{
		"threshold":   t,
		"stations":    len(ranked),
		"duration_ms": duration.Milliseconds(),
	})

	return ranked
}
