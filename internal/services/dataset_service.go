package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"air-quality-platform/internal/dataset"
	"air-quality-platform/internal/models"
	"air-quality-platform/internal/repository"
	"air-quality-platform/pkg/logging"
	"air-quality-platform/pkg/metrics"
)

// LoadResult contains statistics about a dataset load
type LoadResult struct {
	Source          string
	TotalRecords    int
	ValidRecords    int
	RejectedRecords int
	Stations        int
	IdleStations    []string
	Duration        time.Duration
	Errors          []string
}

// maxReportedErrors caps the per-row messages kept in a LoadResult
const maxReportedErrors = 20

func (r *LoadResult) reject(err error) {
	r.RejectedRecords++
	if len(r.Errors) < maxReportedErrors {
		r.Errors = append(r.Errors, err.Error())
	}
}

// DatasetLoader builds the in-memory dataset from a CSV file or the database
type DatasetLoader struct {
	repo    repository.AirQualityRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewDatasetLoader creates a new dataset loader; repo may be nil when only CSV sources are used
func NewDatasetLoader(repo repository.AirQualityRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *DatasetLoader {
	return &DatasetLoader{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// LoadCSVFile loads the combined CSV at path
func (l *DatasetLoader) LoadCSVFile(ctx context.Context, path string) (*dataset.Dataset, *LoadResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	return l.LoadCSV(ctx, file, path)
}

// LoadCSV loads a combined CSV stream; invalid rows are skipped and counted
func (l *DatasetLoader) LoadCSV(ctx context.Context, r io.Reader, source string) (*dataset.Dataset, *LoadResult, error) {
	startTime := time.Now()

	l.logger.Info(ctx, "[DATASET_LOAD_START] Loading dataset", logging.Fields{
		"source": source,
		"stage":  "INITIALIZATION",
	})

	observations, result, err := l.readObservations(r)
	if err != nil {
		return nil, nil, err
	}
	result.Source = source

	return l.finish(ctx, observations, result, startTime)
}

// readObservations parses a CSV stream into validated observations
func (l *DatasetLoader) readObservations(r io.Reader) ([]models.AirQualityObservation, *LoadResult, error) {
	raws, rowErrors, err := dataset.ReadCSV(r)
	if err != nil {
		l.metrics.RecordIngestionError("read_error")
		return nil, nil, err
	}

	result := &LoadResult{
		TotalRecords: len(raws) + len(rowErrors),
		Errors:       make([]string, 0),
	}

	for _, rowErr := range rowErrors {
		l.metrics.RecordIngestionError("parse_error")
		result.reject(rowErr)
	}

	observations := make([]models.AirQualityObservation, 0, len(raws))
	for i := range raws {
		obs, err := raws[i].ToObservation()
		if err != nil {
			l.metrics.RecordIngestionError("validation_error")
			result.reject(fmt.Errorf("record %d: %w", i+1, err))
			continue
		}
		observations = append(observations, *obs)
	}
	result.ValidRecords = len(observations)

	return observations, result, nil
}

// LoadFromRepository loads every stored observation from the database
func (l *DatasetLoader) LoadFromRepository(ctx context.Context) (*dataset.Dataset, *LoadResult, error) {
	if l.repo == nil {
		return nil, nil, fmt.Errorf("no repository configured for database dataset source")
	}

	startTime := time.Now()

	l.logger.Info(ctx, "[DATASET_LOAD_START] Loading dataset", logging.Fields{
		"source": "postgres",
		"stage":  "INITIALIZATION",
	})

	observations, err := l.repo.ListObservations(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load observations: %w", err)
	}

	registered, err := l.repo.ListStations(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list stations: %w", err)
	}

	result := &LoadResult{
		Source:       "postgres",
		TotalRecords: len(observations),
		ValidRecords: len(observations),
		Errors:       make([]string, 0),
	}

	ds, result, err := l.finish(ctx, observations, result, startTime)
	if err != nil {
		return nil, result, err
	}

	// registered stations without observations never reach the dashboard
	for _, station := range registered {
		if !ds.HasStation(station.StationID) {
			result.IdleStations = append(result.IdleStations, station.StationID)
		}
	}
	if len(result.IdleStations) > 0 {
		l.logger.Warn(ctx, "[DATASET_IDLE_STATIONS] Registered stations have no observations", logging.Fields{
			"stations": result.IdleStations,
		})
	}

	return ds, result, nil
}

func (l *DatasetLoader) finish(ctx context.Context, observations []models.AirQualityObservation, result *LoadResult, startTime time.Time) (*dataset.Dataset, *LoadResult, error) {
	ds, err := dataset.New(observations, result.Source)
	if err != nil {
		l.logger.Error(ctx, "[DATASET_LOAD_ERROR] Dataset is empty", logging.Fields{
			"source":           result.Source,
			"total_records":    result.TotalRecords,
			"rejected_records": result.RejectedRecords,
		}, err)
		return nil, result, fmt.Errorf("failed to build dataset from %s: %w", result.Source, err)
	}

	result.Stations = len(ds.Stations())
	result.Duration = time.Since(startTime)

	l.metrics.DatasetLoadDuration.Observe(result.Duration.Seconds())
	l.metrics.RecordDataset(ds.Len(), result.Stations)

	bounds := ds.Bounds()
	l.logger.Info(ctx, "[DATASET_LOAD_COMPLETE] Dataset loaded", logging.Fields{
		"source":           result.Source,
		"total_records":    result.TotalRecords,
		"valid_records":    result.ValidRecords,
		"rejected_records": result.RejectedRecords,
		"stations":         result.Stations,
		"min_date":         bounds.Min.Format(dateLayout),
		"max_date":         bounds.Max.Format(dateLayout),
		"duration_seconds": result.Duration.Seconds(),
		"stage":            "COMPLETE",
	})

	return ds, result, nil
}
