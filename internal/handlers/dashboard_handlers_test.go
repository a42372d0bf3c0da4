package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"air-quality-platform/internal/dataset"
	"air-quality-platform/internal/models"
	"air-quality-platform/internal/services"
	"air-quality-platform/pkg/logging"
	"air-quality-platform/pkg/metrics"
)

type stubStore struct {
	err error
}

func (s stubStore) HealthCheck(ctx context.Context) error {
	return s.err
}

func f(v float64) *float64 { return &v }

func newTestRouter(t *testing.T, store HealthChecker) *mux.Router {
	t.Helper()
	return newTestRouterWithLog(t, store, io.Discard)
}

func newTestRouterWithLog(t *testing.T, store HealthChecker, logOutput io.Writer) *mux.Router {
	t.Helper()

	at := func(y, m, d int) time.Time { return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC) }
	observations := []models.AirQualityObservation{
		{StationID: "Aotizhongxin", Year: 2013, Month: 3, Day: 1, Date: at(2013, 3, 1), PM25: f(4), PM10: f(4)},
		{StationID: "Aotizhongxin", Year: 2013, Month: 3, Day: 2, Date: at(2013, 3, 2), PM25: f(40), PM10: f(60)},
		{StationID: "Changping", Year: 2013, Month: 3, Day: 1, Date: at(2013, 3, 1), PM25: f(3), PM10: f(6)},
		{StationID: "Changping", Year: 2013, Month: 4, Day: 1, Date: at(2013, 4, 1), PM25: f(90), PM10: f(120)},
	}
	ds, err := dataset.New(observations, "memory")
	if err != nil {
		t.Fatalf("dataset.New() error = %v", err)
	}

	logger := logging.NewStructuredLogger("air-quality-test", "test", logging.WarnLevel)
	logger.SetOutput(logOutput)
	collector := metrics.NewCollectorWithRegistry("air_quality_test", prometheus.NewRegistry())

	svc := services.NewDashboardService(ds, 35, 0, logger, collector)
	handler := NewDashboardHandler(svc, store, logger, collector)

	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	RegisterDocsRoutes(router)
	return router
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestDashboardHandler_BadRequests(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		name   string
		target string
	}{
		{"malformed start date", "/api/summary?start_date=2013/03/01"},
		{"malformed end date", "/api/observations?end_date=yesterday"},
		{"unknown scope", "/api/trend/monthly?scope=weekly"},
		{"zero bins", "/api/histogram?bins=0"},
		{"non numeric bins", "/api/histogram?bins=many"},
		{"unknown histogram column", "/api/histogram?column=PM1"},
		{"non measurement boxplot column", "/api/boxplots?column=station"},
		{"negative threshold", "/api/ranking?threshold=-1"},
		{"nan threshold", "/api/ranking?threshold=NaN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, router, tt.target)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
			var resp ErrorResponse
			decode(t, rec, &resp)
			if resp.Code != http.StatusBadRequest || resp.Message == "" {
				t.Errorf("error response = %+v", resp)
			}
		})
	}
}

func TestDashboardHandler_StationSelection(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"all stations by default", "/api/observations", 4},
		{"single station", "/api/observations?station=Changping", 2},
		{"comma separated", "/api/observations?station=Changping,Aotizhongxin", 4},
		{"repeated", "/api/observations?station=Changping&station=Aotizhongxin", 4},
		{"explicit empty selection", "/api/observations?station=", 0},
		{"date range", "/api/observations?start_date=2013-03-02&end_date=2013-03-31", 1},
		{"inverted range", "/api/observations?start_date=2013-04-01&end_date=2013-03-01", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, router, tt.target)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			var resp struct {
				Data  []json.RawMessage `json:"data"`
				Total int               `json:"total"`
			}
			decode(t, rec, &resp)
			if resp.Total != tt.want || len(resp.Data) != tt.want {
				t.Errorf("total = %d, rows = %d, want %d", resp.Total, len(resp.Data), tt.want)
			}
		})
	}
}

func TestDashboardHandler_UnknownStationLogged(t *testing.T) {
	var buf bytes.Buffer
	router := newTestRouterWithLog(t, nil, &buf)

	rec := get(t, router, "/api/summary?station=Changping,Atlantis")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(buf.String(), "[API_UNKNOWN_STATION]") || !strings.Contains(buf.String(), "Atlantis") {
		t.Errorf("log = %q, want unknown station warning for Atlantis", buf.String())
	}

	buf.Reset()
	get(t, router, "/api/summary?station=Changping")
	if strings.Contains(buf.String(), "[API_UNKNOWN_STATION]") {
		t.Errorf("known station logged as unknown: %q", buf.String())
	}
}

func TestDashboardHandler_Pagination(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := get(t, router, "/api/observations?page=2&limit=3")
	var resp PaginatedResponse
	decode(t, rec, &resp)

	rows, _ := resp.Data.([]interface{})
	if resp.Total != 4 || resp.TotalPages != 2 || len(rows) != 1 {
		t.Errorf("page 2 = total %d, pages %d, rows %d", resp.Total, resp.TotalPages, len(rows))
	}

	for _, target := range []string{
		"/api/observations?page=9",
		"/api/observations?page=9223372036854775807&limit=1000",
		"/api/observations?page=4611686018427387904&limit=3",
	} {
		rec = get(t, router, target)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d", target, rec.Code)
		}
		decode(t, rec, &resp)
		if rows, _ := resp.Data.([]interface{}); len(rows) != 0 || resp.Total != 4 {
			t.Errorf("%s returned %d rows, total %d", target, len(rows), resp.Total)
		}
	}
}

func TestDashboardHandler_Ranking(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := get(t, router, "/api/ranking")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp RankingResponse
	decode(t, rec, &resp)
	if resp.Threshold != 35 {
		t.Errorf("threshold = %v, want default 35", resp.Threshold)
	}
	if len(resp.Stations) != 2 {
		t.Fatalf("stations = %d, want 2", len(resp.Stations))
	}
	// Aotizhongxin: recency 30, frequency 1, monetary 27 -> 58
	// Changping: recency 0, frequency 1, monetary 54.75 -> 55.75
	if resp.Stations[0].Station != "Aotizhongxin" || resp.Stations[0].Recency != 30 {
		t.Errorf("top station = %+v", resp.Stations[0])
	}

	rec = get(t, router, "/api/ranking?threshold=100")
	decode(t, rec, &resp)
	if resp.Threshold != 100 {
		t.Errorf("threshold = %v, want 100", resp.Threshold)
	}
	for _, s := range resp.Stations {
		if s.Frequency != 0 {
			t.Errorf("%s frequency = %d at threshold 100", s.Station, s.Frequency)
		}
	}
}

func TestDashboardHandler_Tables(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := get(t, router, "/api/stations")
	var stations StationsResponse
	decode(t, rec, &stations)
	if len(stations.Stations) != 2 || stations.Stations[0] != "Aotizhongxin" {
		t.Errorf("stations = %v", stations.Stations)
	}

	rec = get(t, router, "/api/bounds")
	var bounds BoundsResponse
	decode(t, rec, &bounds)
	if bounds.MinDate != "2013-03-01" || bounds.MaxDate != "2013-04-01" {
		t.Errorf("bounds = %+v", bounds)
	}

	rec = get(t, router, "/api/trend/monthly?station=Changping&scope=all")
	var trend []models.TrendPoint
	decode(t, rec, &trend)
	if len(trend) != 2 {
		t.Errorf("full-scope trend buckets = %d, want 2", len(trend))
	}

	rec = get(t, router, "/api/correlation?station=")
	var corr struct {
		Columns []string     `json:"columns"`
		Values  [][]*float64 `json:"values"`
	}
	decode(t, rec, &corr)
	if len(corr.Columns) != len(models.MeasurementColumns) || corr.Values[0][0] != nil {
		t.Errorf("empty selection correlation = %+v", corr)
	}

	rec = get(t, router, "/api/histogram?column=PM10&bins=2")
	var hist models.Histogram
	decode(t, rec, &hist)
	if hist.Column != "PM10" || len(hist.Bins) != 2 || hist.Count != 4 {
		t.Errorf("histogram = %+v", hist)
	}

	rec = get(t, router, "/api/boxplots")
	var boxes []models.BoxplotStats
	decode(t, rec, &boxes)
	if len(boxes) != 2 || boxes[0].Column != models.ColumnPM25 {
		t.Errorf("boxplots = %+v", boxes)
	}
}

func TestDashboardHandler_HealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		store      HealthChecker
		wantStatus int
	}{
		{"file source", nil, http.StatusOK},
		{"database up", stubStore{}, http.StatusOK},
		{"database down", stubStore{err: errors.New("connection refused")}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, newTestRouter(t, tt.store), "/health")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestDocsRoutes(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := get(t, router, OpenAPIPath)
	var doc struct {
		Paths map[string]interface{} `json:"paths"`
	}
	decode(t, rec, &doc)
	for _, path := range []string{"/api/ranking", "/api/correlation", "/api/boxplots", "/health"} {
		if _, ok := doc.Paths[path]; !ok {
			t.Errorf("OpenAPI document lacks %s", path)
		}
	}

	rec = get(t, router, DocsPath)
	if rec.Code != http.StatusOK {
		t.Errorf("docs page status = %d", rec.Code)
	}
}
