package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"air-quality-platform/internal/config"
	"air-quality-platform/internal/dataset"
	"air-quality-platform/internal/handlers"
	"air-quality-platform/internal/repository"
	"air-quality-platform/internal/services"
	"air-quality-platform/pkg/database"
	"air-quality-platform/pkg/logging"
	"air-quality-platform/pkg/metrics"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("air-quality-api", version, logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting air quality dashboard API server", logging.Fields{
		"version":        version,
		"server_host":    cfg.Server.Host,
		"server_port":    cfg.Server.Port,
		"dataset_source": cfg.Dataset.Source,
		"dataset_path":   cfg.Dataset.Path,
	})

	metricsCollector := metrics.NewCollector("air_quality")

	// The dashboard works off a single in-memory dataset loaded at startup
	var (
		ds    *dataset.Dataset
		store handlers.HealthChecker
	)
	if cfg.UsesDatabase() {
		db, err := database.NewPostgresDB(ctx, cfg.Database.Postgres(), logger, metricsCollector)
		if err != nil {
			logger.Fatal(ctx, "[STARTUP_ERROR] Failed to connect to database", logging.Fields{
				"db_host": cfg.Database.Host,
				"db_name": cfg.Database.Database,
			}, err)
		}
		defer db.Close()

		repo := repository.NewAirQualityRepository(db, logger, metricsCollector)
		ds, _, err = services.NewDatasetLoader(repo, logger, metricsCollector).LoadFromRepository(ctx)
		if err != nil {
			logger.Fatal(ctx, "[STARTUP_ERROR] Failed to load dataset from database", logging.Fields{}, err)
		}
		store = repo
	} else {
		ds, _, err = services.NewDatasetLoader(nil, logger, metricsCollector).LoadCSVFile(ctx, cfg.Dataset.Path)
		if err != nil {
			logger.Fatal(ctx, "[STARTUP_ERROR] Failed to load dataset", logging.Fields{
				"path": cfg.Dataset.Path,
			}, err)
		}
	}

	dashboardService := services.NewDashboardService(
		ds,
		cfg.Analytics.PollutionThreshold,
		cfg.Analytics.HistogramBins,
		logger,
		metricsCollector,
	)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService, store, logger, metricsCollector)

	// Setup router
	router := mux.NewRouter()
	router.Use(handlers.RequestID, handlers.AccessLog(logger))

	dashboardHandler.RegisterRoutes(router)
	handlers.RegisterDocsRoutes(router)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address":  server.Addr,
			"records":  ds.Len(),
			"stations": len(ds.Stations()),
		})

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
