package services

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"air-quality-platform/internal/models"
	"air-quality-platform/internal/repository"
	"air-quality-platform/pkg/logging"
	"air-quality-platform/pkg/metrics"
)

func newTestLogger() *logging.StructuredLogger {
	logger := logging.NewStructuredLogger("air-quality-test", "test", logging.DebugLevel)
	logger.SetOutput(io.Discard)
	return logger
}

func newTestMetrics() *metrics.Collector {
	return metrics.NewCollectorWithRegistry("air_quality_test", prometheus.NewRegistry())
}

// fakeRepository is an in-memory AirQualityRepository
type fakeRepository struct {
	mu           sync.Mutex
	stations     map[string]*models.AirQualityStation
	observations []models.AirQualityObservation
	batches      int
	failBatch    bool
	failLookup   bool
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{stations: make(map[string]*models.AirQualityStation)}
}

func (r *fakeRepository) CreateStation(_ context.Context, station *models.AirQualityStation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stations[station.StationID]; !ok {
		r.stations[station.StationID] = station
	}
	return nil
}

func (r *fakeRepository) GetStation(_ context.Context, stationID string) (*models.AirQualityStation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failLookup {
		return nil, errors.New("connection refused")
	}
	if s, ok := r.stations[stationID]; ok {
		return s, nil
	}
	return nil, &repository.NotFoundError{Resource: "air_quality_station", ID: stationID}
}

func (r *fakeRepository) ListStations(context.Context) ([]*models.AirQualityStation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []*models.AirQualityStation
	for _, s := range r.stations {
		list = append(list, s)
	}
	return list, nil
}

func (r *fakeRepository) CreateObservationsBatch(_ context.Context, observations []*models.AirQualityObservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failBatch {
		return errors.New("connection reset")
	}
	for _, o := range observations {
		if _, ok := r.stations[o.StationID]; !ok {
			return errors.New("foreign key violation: " + o.StationID)
		}
		r.observations = append(r.observations, *o)
	}
	r.batches++
	return nil
}

func (r *fakeRepository) ListObservations(context.Context) ([]models.AirQualityObservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.AirQualityObservation(nil), r.observations...), nil
}

func (r *fakeRepository) CountObservations(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.observations), nil
}

func (r *fakeRepository) HealthCheck(context.Context) error {
	return nil
}

const testCSV = `No,year,month,day,hour,PM2.5,PM10,SO2,NO2,CO,O3,TEMP,PRES,DEWP,RAIN,wd,WSPM,station
1,2013,3,1,0,40,60,4,7,300,77,-0.7,1023,-18.8,0,NNW,4.4,Aotizhongxin
2,2013,3,2,0,50,70,4,7,300,77,-1.1,1023.2,-18.2,0,N,4.7,Aotizhongxin
3,2013,2,26,0,10,20,5,10,300,73,-1.1,1023.5,-18.2,0,NW,5.6,Changping
4,2013,2,30,0,6,6,11,11,300,72,-1.4,1024.5,-19.4,0,NW,3.1,Changping
5,2013,4,1,0,-5,6,11,11,300,72,-1.4,1024.5,-19.4,0,NW,3.1,Changping
6,NA,4,1,0,5,6,11,11,300,72,-1.4,1024.5,-19.4,0,NW,3.1,Changping
`
