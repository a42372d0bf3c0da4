package export

import (
	"bytes"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"air-quality-platform/internal/models"
)

func f(v float64) *float64 { return &v }

func sampleReport() Report {
	return Report{
		Threshold: 35,
		Ranking: []models.StationSummary{
			{Station: "A", Recency: 0, Frequency: 2, Monetary: f(58), RFMScore: f(60), MaxDate: "2017-02-28"},
			{Station: "B", Recency: 0, Frequency: 0, MaxDate: "2017-02-28"},
		},
		Summary: []models.DescribeRow{
			{Column: models.ColumnPM25, Count: 3, Mean: f(20), Min: f(10), Max: f(30)},
		},
		MonthlyTrend: []models.TrendPoint{
			{Period: "2017-01", Year: 2017, Month: 1, PM25: f(12.5), PM10: f(20)},
		},
		Correlation: models.CorrelationMatrix{
			Columns: []string{models.ColumnPM25, models.ColumnPM10},
			Values:  [][]*float64{{f(1), f(0.5)}, {f(0.5), nil}},
		},
		BoxplotsPM25: []models.BoxplotStats{
			{Station: "A", Column: models.ColumnPM25, Count: 4, Median: f(15), Outliers: []float64{500}},
		},
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleReport()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	wb, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer wb.Close()

	wantSheets := []string{SheetRanking, SheetSummary, SheetMonthlyTrend, SheetCorrelation, SheetBoxplotsPM25, SheetBoxplotsPM10}
	if got := wb.GetSheetList(); !reflect.DeepEqual(got, wantSheets) {
		t.Errorf("sheets = %v, want %v", got, wantSheets)
	}

	tests := []struct {
		sheet string
		cell  string
		want  string
	}{
		{SheetRanking, "B1", "Station"},
		{SheetRanking, "B2", "A"},
		{SheetRanking, "F2", "60"},
		{SheetRanking, "E3", ""}, // undefined monetary stays blank
		{SheetRanking, "B5", "35"},
		{SheetSummary, "A2", models.ColumnPM25},
		{SheetMonthlyTrend, "D2", "12.5"},
		{SheetCorrelation, "B1", models.ColumnPM25},
		{SheetCorrelation, "C2", "0.5"},
		{SheetCorrelation, "C3", ""},
		{SheetBoxplotsPM25, "E2", "15"},
		{SheetBoxplotsPM25, "M2", "1"},
		{SheetBoxplotsPM10, "A1", "Station"},
	}

	for _, tt := range tests {
		got, err := wb.GetCellValue(tt.sheet, tt.cell)
		if err != nil {
			t.Errorf("GetCellValue(%s, %s) error = %v", tt.sheet, tt.cell, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s!%s = %q, want %q", tt.sheet, tt.cell, got, tt.want)
		}
	}
}

func TestSaveAs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.xlsx")
	if err := SaveAs(path, Report{Threshold: 35}); err != nil {
		t.Fatalf("SaveAs() error = %v", err)
	}

	wb, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer wb.Close()

	if got, _ := wb.GetCellValue(SheetRanking, "A3"); got != "Threshold" {
		t.Errorf("empty ranking threshold label at A3 = %q", got)
	}
}
