package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"air-quality-platform/internal/models"
)

func writeTestCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main_data.csv")
	if err := os.WriteFile(path, []byte(testCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIngestionService_IngestFile(t *testing.T) {
	repo := newFakeRepository()
	svc := NewIngestionService(repo, newTestLogger(), newTestMetrics())

	result, err := svc.IngestFile(context.Background(), writeTestCSV(t), 2)
	if err != nil {
		t.Fatalf("IngestFile() error = %v", err)
	}

	if result.TotalRecords != 6 || result.SuccessfulRecords != 3 || result.FailedRecords != 3 {
		t.Errorf("result = %+v", result)
	}
	if result.StationsCreated != 2 || len(repo.stations) != 2 {
		t.Errorf("stations created = %d, stored = %d", result.StationsCreated, len(repo.stations))
	}
	if result.Batches != 2 || repo.batches != 2 {
		t.Errorf("batches = %d, repo batches = %d, want 2", result.Batches, repo.batches)
	}
	if len(repo.observations) != 3 {
		t.Errorf("stored observations = %d, want 3", len(repo.observations))
	}
}

func TestIngestionService_ExistingStations(t *testing.T) {
	repo := newFakeRepository()
	repo.stations["Aotizhongxin"] = &models.AirQualityStation{StationID: "Aotizhongxin"}
	svc := NewIngestionService(repo, newTestLogger(), newTestMetrics())

	result, err := svc.IngestFile(context.Background(), writeTestCSV(t), 10)
	if err != nil {
		t.Fatalf("IngestFile() error = %v", err)
	}
	if result.StationsCreated != 1 || result.StationsExisting != 1 {
		t.Errorf("created = %d, existing = %d, want 1 and 1", result.StationsCreated, result.StationsExisting)
	}
	if len(repo.observations) != 3 {
		t.Errorf("stored observations = %d, want 3", len(repo.observations))
	}
}

func TestIngestionService_Errors(t *testing.T) {
	svc := NewIngestionService(newFakeRepository(), newTestLogger(), newTestMetrics())

	if _, err := svc.IngestFile(context.Background(), writeTestCSV(t), 0); err == nil {
		t.Error("IngestFile() with batch size 0 should fail")
	}

	if _, err := svc.IngestFile(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), 10); err == nil {
		t.Error("IngestFile() on a missing file should fail")
	}

	unreachable := newFakeRepository()
	unreachable.failLookup = true
	svc = NewIngestionService(unreachable, newTestLogger(), newTestMetrics())
	if _, err := svc.IngestFile(context.Background(), writeTestCSV(t), 10); err == nil {
		t.Error("IngestFile() should surface station lookup failures")
	}
	if len(unreachable.stations) != 0 {
		t.Errorf("stations created despite failed lookup: %d", len(unreachable.stations))
	}

	failing := newFakeRepository()
	failing.failBatch = true
	svc = NewIngestionService(failing, newTestLogger(), newTestMetrics())
	if _, err := svc.IngestFile(context.Background(), writeTestCSV(t), 10); err == nil {
		t.Error("IngestFile() should surface batch failures")
	}
}
