package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"air-quality-platform/internal/config"
	"air-quality-platform/internal/repository"
	"air-quality-platform/internal/services"
	"air-quality-platform/pkg/database"
	"air-quality-platform/pkg/logging"
	"air-quality-platform/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	dataFile := flag.String("data-file", cfg.Dataset.Path, "Combined air quality CSV to ingest")
	batchSize := flag.Int("batch-size", cfg.Dataset.BatchSize, "Number of records to insert per transaction")
	flag.Parse()

	logger := logging.NewStructuredLogger("air-quality-ingester", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[INGESTER_START] Starting air quality data ingestion", logging.Fields{
		"version":    "1.0.0",
		"data_file":  *dataFile,
		"batch_size": *batchSize,
	})

	metricsCollector := metrics.NewCollector("air_quality_ingester")

	db, err := database.NewPostgresDB(ctx, cfg.Database.Postgres(), logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	repo := repository.NewAirQualityRepository(db, logger, metricsCollector)
	ingestionService := services.NewIngestionService(repo, logger, metricsCollector)

	result, err := ingestionService.IngestFile(ctx, *dataFile, *batchSize)
	if err != nil {
		logger.Fatal(ctx, "[INGESTION_ERROR] Ingestion failed", logging.Fields{
			"data_file": *dataFile,
		}, err)
	}

	stored, err := repo.CountObservations(ctx)
	if err != nil {
		logger.Error(ctx, "[INGESTER_COUNT_ERROR] Failed to count stored observations", logging.Fields{}, err)
	}

	// Print results
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("INGESTION COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Total Records:      %d\n", result.TotalRecords)
	fmt.Printf("Successful Records: %d\n", result.SuccessfulRecords)
	fmt.Printf("Failed Records:     %d\n", result.FailedRecords)
	fmt.Printf("Stations Created:   %d\n", result.StationsCreated)
	fmt.Printf("Stations Existing:  %d\n", result.StationsExisting)
	fmt.Printf("Batches:            %d\n", result.Batches)
	fmt.Printf("Stored Rows:        %d\n", stored)
	fmt.Printf("Duration:           %v\n", result.Duration)
	if secs := result.Duration.Seconds(); secs > 0 {
		fmt.Printf("Records/Second:     %.2f\n", float64(result.SuccessfulRecords)/secs)
	}

	if len(result.Errors) > 0 {
		fmt.Printf("\nErrors (%d shown of %d rejected):\n", len(result.Errors), result.FailedRecords)
		for i, errMsg := range result.Errors {
			if i < 10 {
				fmt.Printf("  - %s\n", errMsg)
			}
		}
		if len(result.Errors) > 10 {
			fmt.Printf("  ... and %d more errors\n", len(result.Errors)-10)
		}
	}

	logger.Info(ctx, "[INGESTER_COMPLETE] Ingestion completed successfully", logging.Fields{
		"total_records":      result.TotalRecords,
		"successful_records": result.SuccessfulRecords,
		"failed_records":     result.FailedRecords,
		"duration_seconds":   result.Duration.Seconds(),
	})
}
