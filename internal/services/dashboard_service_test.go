package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"air-quality-platform/internal/dataset"
	"air-quality-platform/internal/models"
)

func f(v float64) *float64 { return &v }

func newTestDashboard(t *testing.T) *DashboardService {
	t.Helper()

	at := func(y, m, d int) time.Time { return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC) }
	observations := []models.AirQualityObservation{
		{StationID: "Dongsi", Date: at(2014, 1, 1), PM25: f(10), PM10: f(20)},
		{StationID: "Dongsi", Date: at(2014, 1, 15), PM25: f(20), PM10: f(40)},
		{StationID: "Tiantan", Date: at(2014, 1, 20), PM25: f(30), PM10: f(30)},
		{StationID: "Tiantan", Date: at(2014, 2, 5), PM25: f(80), PM10: f(100)},
		{StationID: "Dongsi", Date: at(2014, 2, 10), PM25: f(40), PM10: f(50)},
	}

	ds, err := dataset.New(observations, "memory")
	if err != nil {
		t.Fatalf("dataset.New() error = %v", err)
	}
	return NewDashboardService(ds, 35, 0, newTestLogger(), newTestMetrics())
}

func TestDashboardService_ResolveDefaults(t *testing.T) {
	svc := newTestDashboard(t)

	dateRange, stations := svc.Resolve(DashboardFilter{})
	if dateRange.Start.Format(dateLayout) != "2014-01-01" || dateRange.End.Format(dateLayout) != "2014-02-10" {
		t.Errorf("default range = %v..%v", dateRange.Start, dateRange.End)
	}
	if len(stations) != 2 {
		t.Errorf("default stations = %v, want all", stations)
	}

	if got := svc.Observations(context.Background(), DashboardFilter{}); len(got) != 5 {
		t.Errorf("unfiltered rows = %d, want 5", len(got))
	}
	if got := svc.Observations(context.Background(), DashboardFilter{Stations: []string{}}); len(got) != 0 {
		t.Errorf("empty selection rows = %d, want 0", len(got))
	}
}

func TestDashboardService_FilteredTables(t *testing.T) {
	svc := newTestDashboard(t)
	ctx := context.Background()

	end := time.Date(2014, 1, 31, 0, 0, 0, 0, time.UTC)
	filter := DashboardFilter{EndDate: &end, Stations: []string{"Dongsi"}}

	trend := svc.MonthlyTrend(ctx, filter, false)
	if len(trend) != 1 || trend[0].PM25 == nil || *trend[0].PM25 != 15 {
		t.Errorf("filtered monthly trend = %+v", trend)
	}

	all := svc.MonthlyTrend(ctx, filter, true)
	if len(all) != 2 {
		t.Errorf("full monthly trend has %d buckets, want 2", len(all))
	}

	summary := svc.Summary(ctx, filter)
	if len(summary) != len(models.DescribeColumns) {
		t.Errorf("summary rows = %d", len(summary))
	}

	corr := svc.Correlation(ctx, filter)
	if r := corr.At(models.ColumnPM25, models.ColumnPM10); r == nil || math.Abs(*r-1) > 1e-9 {
		t.Errorf("corr(PM2.5, PM10) = %v, want 1", r)
	}

	hist, err := svc.Histogram(ctx, filter, models.ColumnPM25, 0)
	if err != nil {
		t.Fatalf("Histogram() error = %v", err)
	}
	if hist.Count != 2 {
		t.Errorf("histogram count = %d, want 2", hist.Count)
	}
}

func TestDashboardService_EmptySelection(t *testing.T) {
	svc := newTestDashboard(t)
	ctx := context.Background()

	start := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	filter := DashboardFilter{StartDate: &start}

	if rows := svc.Summary(ctx, filter); len(rows) != 0 {
		t.Errorf("summary of empty selection = %v", rows)
	}
	if trend := svc.MonthlyTrend(ctx, filter, false); len(trend) != 0 {
		t.Errorf("trend of empty selection = %v", trend)
	}
	hist, err := svc.Histogram(ctx, filter, models.ColumnPM10, 5)
	if err != nil || len(hist.Bins) != 0 {
		t.Errorf("histogram of empty selection = %+v, %v", hist, err)
	}
}

func TestDashboardService_FullDatasetTables(t *testing.T) {
	svc := newTestDashboard(t)
	ctx := context.Background()

	ranked := svc.Ranking(ctx, nil)
	if len(ranked) != 2 {
		t.Fatalf("ranking rows = %d", len(ranked))
	}
	// Tiantan: recency 5, frequency 1, monetary (55 + 65) / 2 = 60 -> 66
	// Dongsi: recency 0, frequency 1, monetary (70/3 + 110/3) / 2 = 30 -> 31
	if ranked[0].Station != "Tiantan" || ranked[1].Station != "Dongsi" {
		t.Errorf("ranking order = %s, %s", ranked[0].Station, ranked[1].Station)
	}

	strict := 100.0
	for _, s := range svc.Ranking(ctx, &strict) {
		if s.Frequency != 0 {
			t.Errorf("%s frequency at threshold 100 = %d", s.Station, s.Frequency)
		}
	}

	boxes, err := svc.Boxplots(ctx, models.ColumnPM10)
	if err != nil || len(boxes) != 2 {
		t.Errorf("Boxplots() = %v, %v", boxes, err)
	}

	trends := svc.StationTrends(ctx)
	if len(trends.Yearly) != 2 || len(trends.Monthly) != 4 {
		t.Errorf("station trends = %d yearly, %d monthly", len(trends.Yearly), len(trends.Monthly))
	}
}

func TestDashboardService_UnknownColumn(t *testing.T) {
	svc := newTestDashboard(t)

	var colErr *UnknownColumnError
	if _, err := svc.Boxplots(context.Background(), "PM1"); !errors.As(err, &colErr) {
		t.Errorf("Boxplots(PM1) error = %v, want UnknownColumnError", err)
	}
	if _, err := svc.Histogram(context.Background(), DashboardFilter{}, "station", 3); !errors.As(err, &colErr) {
		t.Errorf("Histogram(station) error = %v, want UnknownColumnError", err)
	}
}

func TestDashboardService_UnknownStations(t *testing.T) {
	svc := newTestDashboard(t)

	tests := []struct {
		name     string
		stations []string
		want     []string
	}{
		{"all known", []string{"Dongsi", "Tiantan"}, nil},
		{"one unknown", []string{"Dongsi", "Nowhere"}, []string{"Nowhere"}},
		{"empty selection", []string{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.UnknownStations(tt.stations)
			if len(got) != len(tt.want) {
				t.Fatalf("UnknownStations() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("UnknownStations()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
