package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"air-quality-platform/internal/models"
	"air-quality-platform/internal/repository"
	"air-quality-platform/pkg/logging"
	"air-quality-platform/pkg/metrics"
)

// IngestionService copies the combined CSV into the database
type IngestionService struct {
	repo    repository.AirQualityRepository
	loader  *DatasetLoader
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// IngestionResult contains ingestion statistics
type IngestionResult struct {
	TotalRecords      int
	SuccessfulRecords int
	FailedRecords     int
	StationsCreated   int
	StationsExisting  int
	Batches           int
	Duration          time.Duration
	Errors            []string
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(repo repository.AirQualityRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *IngestionService {
	return &IngestionService{
		repo:    repo,
		loader:  NewDatasetLoader(repo, logger, metricsCollector),
		logger:  logger,
		metrics: metricsCollector,
	}
}

// IngestFile ingests the combined CSV at path in batches of batchSize
func (s *IngestionService) IngestFile(ctx context.Context, path string, batchSize int) (*IngestionResult, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	startTime := time.Now()
	log := s.logger.WithFields(logging.Fields{"path": path})

	log.Info(ctx, "[INGEST_START] Starting data ingestion", logging.Fields{
		"batch_size": batchSize,
		"stage":      "INITIALIZATION",
	})

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer file.Close()

	observations, loadResult, err := s.loader.readObservations(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	result := &IngestionResult{
		TotalRecords:  loadResult.TotalRecords,
		FailedRecords: loadResult.RejectedRecords,
		Errors:        loadResult.Errors,
	}

	log.Info(ctx, "[INGEST_PARSED] Data file parsed", logging.Fields{
		"total_records":    result.TotalRecords,
		"valid_records":    len(observations),
		"rejected_records": result.FailedRecords,
		"stage":            "PARSING",
	})

	// Stations first, since observations reference them
	seen := make(map[string]bool)
	for i := range observations {
		stationID := observations[i].StationID
		if seen[stationID] {
			continue
		}
		seen[stationID] = true

		created, err := s.ensureStation(ctx, stationID)
		if err != nil {
			return nil, err
		}
		if created {
			result.StationsCreated++
		} else {
			result.StationsExisting++
		}
	}

	batch := make([]*models.AirQualityObservation, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.repo.CreateObservationsBatch(ctx, batch); err != nil {
			s.metrics.RecordIngestionError("batch_error")
			return fmt.Errorf("failed to insert batch %d: %w", result.Batches+1, err)
		}
		result.SuccessfulRecords += len(batch)
		result.Batches++
		batch = batch[:0]
		return nil
	}

	for i := range observations {
		batch = append(batch, &observations[i])
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	result.Duration = time.Since(startTime)
	s.metrics.DatasetLoadDuration.Observe(result.Duration.Seconds())

	log.Info(ctx, "[INGEST_COMPLETE] Data ingestion completed", logging.Fields{
		"total_records":      result.TotalRecords,
		"successful_records": result.SuccessfulRecords,
		"failed_records":     result.FailedRecords,
		"stations_created":   result.StationsCreated,
		"stations_existing":  result.StationsExisting,
		"batches":            result.Batches,
		"duration_seconds":   result.Duration.Seconds(),
		"stage":              "COMPLETE",
	})

	return result, nil
}

// ensureStation registers stationID unless it already exists and reports whether it was created
func (s *IngestionService) ensureStation(ctx context.Context, stationID string) (bool, error) {
	_, err := s.repo.GetStation(ctx, stationID)
	if err == nil {
		return false, nil
	}

	var notFound *repository.NotFoundError
	if !errors.As(err, &notFound) {
		return false, fmt.Errorf("failed to look up station %s: %w", stationID, err)
	}

	now := time.Now().UTC()
	station := &models.AirQualityStation{
		StationID: stationID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateStation(ctx, station); err != nil {
		return false, fmt.Errorf("failed to create station %s: %w", stationID, err)
	}
	return true, nil
}
