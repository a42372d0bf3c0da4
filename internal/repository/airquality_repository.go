package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"air-quality-platform/internal/models"
	"air-quality-platform/pkg/database"
	"air-quality-platform/pkg/logging"
	"air-quality-platform/pkg/metrics"
)

// AirQualityRepository provides data access for air quality data
type AirQualityRepository interface {
	// Station operations
	CreateStation(ctx context.Context, station *models.AirQualityStation) error
	GetStation(ctx context.Context, stationID string) (*models.AirQualityStation, error)
	ListStations(ctx context.Context) ([]*models.AirQualityStation, error)

	// Observation operations
	CreateObservationsBatch(ctx context.Context, observations []*models.AirQualityObservation) error
	ListObservations(ctx context.Context) ([]models.AirQualityObservation, error)
	CountObservations(ctx context.Context) (int, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

const observationColumns = `
	station_id, year, month, day, hour, observation_date,
	pm25, pm10, so2, no2, co, o3,
	temp, pres, dewp, rain, wspm, wind_direction
`

// airQualityRepository implements AirQualityRepository on PostgreSQL
type airQualityRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewAirQualityRepository creates a new air quality repository
func NewAirQualityRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) AirQualityRepository {
	return &airQualityRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// CreateStation creates a monitoring station if it does not exist yet
func (r *airQualityRepository) CreateStation(ctx context.Context, station *models.AirQualityStation) error {
	query := `
		INSERT INTO air_quality_stations (station_id, created_at, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (station_id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, "insert_station", query,
		station.StationID,
		station.CreatedAt,
		station.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create station: %w", err)
	}

	r.logger.Debug(ctx, "[REPO_CREATE_STATION] Station created", logging.Fields{
		"station_id": station.StationID,
	})

	return nil
}

// GetStation retrieves a station by ID
func (r *airQualityRepository) GetStation(ctx context.Context, stationID string) (*models.AirQualityStation, error) {
	query := `
		SELECT station_id, created_at, updated_at
		FROM air_quality_stations
		WHERE station_id = $1
	`

	var station models.AirQualityStation
	err := r.db.GetContext(ctx, "get_station", &station, query, stationID)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{
			Resource: "air_quality_station",
			ID:       stationID,
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get station: %w", err)
	}

	return &station, nil
}

// ListStations retrieves all stations ordered by identifier
func (r *airQualityRepository) ListStations(ctx context.Context) ([]*models.AirQualityStation, error) {
	query := `
		SELECT station_id, created_at, updated_at
		FROM air_quality_stations
		ORDER BY station_id
	`

	var stations []*models.AirQualityStation
	if err := r.db.SelectContext(ctx, "list_stations", &stations, query); err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}

	return stations, nil
}

// CreateObservationsBatch upserts observations in a single transaction
func (r *airQualityRepository) CreateObservationsBatch(ctx context.Context, observations []*models.AirQualityObservation) error {
	if len(observations) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.IngestionBatchSize.Observe(float64(len(observations)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Batch insert completed", logging.Fields{
			"count":       len(observations),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO air_quality_observations (`+observationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (station_id, year, month, day, hour) DO UPDATE SET
			pm25 = EXCLUDED.pm25,
			pm10 = EXCLUDED.pm10,
			so2 = EXCLUDED.so2,
			no2 = EXCLUDED.no2,
			co = EXCLUDED.co,
			o3 = EXCLUDED.o3,
			temp = EXCLUDED.temp,
			pres = EXCLUDED.pres,
			dewp = EXCLUDED.dewp,
			rain = EXCLUDED.rain,
			wspm = EXCLUDED.wspm,
			wind_direction = EXCLUDED.wind_direction
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, obs := range observations {
		_, err := stmt.ExecContext(ctx,
			obs.StationID,
			obs.Year,
			obs.Month,
			obs.Day,
			obs.Hour,
			obs.Date,
			obs.PM25,
			obs.PM10,
			obs.SO2,
			obs.NO2,
			obs.CO,
			obs.O3,
			obs.TEMP,
			obs.PRES,
			obs.DEWP,
			obs.RAIN,
			obs.WSPM,
			obs.WindDirection,
		)
		if err != nil {
			return fmt.Errorf("failed to insert observation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.IngestionRecordsTotal.Add(float64(len(observations)))

	return nil
}

// ListObservations returns every stored observation in insertion order
func (r *airQualityRepository) ListObservations(ctx context.Context) ([]models.AirQualityObservation, error) {
	query := `SELECT id, ` + observationColumns + `
		FROM air_quality_observations
		ORDER BY id
	`

	var observations []models.AirQualityObservation
	if err := r.db.SelectContext(ctx, "list_observations", &observations, query); err != nil {
		return nil, fmt.Errorf("failed to list observations: %w", err)
	}

	for i := range observations {
		observations[i].Date = observations[i].Date.UTC()
	}

	return observations, nil
}

// CountObservations returns the number of stored observations
func (r *airQualityRepository) CountObservations(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, "count_observations", &count, `SELECT COUNT(*) FROM air_quality_observations`); err != nil {
		return 0, fmt.Errorf("failed to count observations: %w", err)
	}
	return count, nil
}

// HealthCheck performs a repository health check
func (r *airQualityRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
