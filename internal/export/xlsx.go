package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"air-quality-platform/internal/models"
)

// Sheet names of the dashboard workbook
const (
	SheetRanking      = "Ranking"
	SheetSummary      = "Summary"
	SheetMonthlyTrend = "MonthlyTrend"
	SheetCorrelation  = "Correlation"
	SheetBoxplotsPM25 = "Boxplots PM2.5"
	SheetBoxplotsPM10 = "Boxplots PM10"
)

// Report holds the dashboard tables written to the workbook
type Report struct {
	Threshold    float64
	Ranking      []models.StationSummary
	Summary      []models.DescribeRow
	MonthlyTrend []models.TrendPoint
	Correlation  models.CorrelationMatrix
	BoxplotsPM25 []models.BoxplotStats
	BoxplotsPM10 []models.BoxplotStats
}

// sheetWriter writes rows into one sheet. Nil cells stay blank.
type sheetWriter struct {
	file  *excelize.File
	sheet string
	row   int
	err   error
}

func (s *sheetWriter) writeRow(values ...interface{}) {
	if s.err != nil {
		return
	}
	s.row++
	for i, v := range values {
		if v == nil {
			continue
		}
		if p, ok := v.(*float64); ok {
			if p == nil {
				continue
			}
			v = *p
		}
		cell, err := excelize.CoordinatesToCellName(i+1, s.row)
		if err != nil {
			s.err = err
			return
		}
		if err := s.file.SetCellValue(s.sheet, cell, v); err != nil {
			s.err = fmt.Errorf("sheet %s cell %s: %w", s.sheet, cell, err)
			return
		}
	}
}

func (s *sheetWriter) header(names ...string) {
	values := make([]interface{}, len(names))
	for i, n := range names {
		values[i] = n
	}
	s.writeRow(values...)
	if s.err == nil && len(names) > 0 {
		last, _ := excelize.ColumnNumberToName(len(names))
		s.err = s.file.SetColWidth(s.sheet, "A", last, 14)
	}
}

// NewWorkbook lays the report out as one sheet per table
func NewWorkbook(report Report) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetRanking); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{SheetSummary, SheetMonthlyTrend, SheetCorrelation, SheetBoxplotsPM25, SheetBoxplotsPM10} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	writers := []func(*excelize.File, Report) error{
		writeRanking,
		writeSummary,
		writeMonthlyTrend,
		writeCorrelation,
		func(f *excelize.File, r Report) error { return writeBoxplots(f, SheetBoxplotsPM25, r.BoxplotsPM25) },
		func(f *excelize.File, r Report) error { return writeBoxplots(f, SheetBoxplotsPM10, r.BoxplotsPM10) },
	}
	for _, write := range writers {
		if err := write(f, report); err != nil {
			f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

// Write encodes the report as an XLSX workbook to w
func Write(w io.Writer, report Report) error {
	f, err := NewWorkbook(report)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveAs writes the report to an XLSX file at path
func SaveAs(path string, report Report) error {
	f, err := NewWorkbook(report)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func writeRanking(f *excelize.File, r Report) error {
	s := &sheetWriter{file: f, sheet: SheetRanking}
	s.header("Rank", "Station", "Recency", "Frequency", "Monetary", "RFM_Score", "Max Date")
	for i, summary := range r.Ranking {
		s.writeRow(i+1, summary.Station, summary.Recency, summary.Frequency, summary.Monetary, summary.RFMScore, summary.MaxDate)
	}
	s.row++
	s.writeRow("Threshold", r.Threshold)
	return s.err
}

func writeSummary(f *excelize.File, r Report) error {
	s := &sheetWriter{file: f, sheet: SheetSummary}
	s.header("Column", "count", "mean", "std", "min", "25%", "50%", "75%", "max")
	for _, row := range r.Summary {
		s.writeRow(row.Column, row.Count, row.Mean, row.Std, row.Min, row.Q1, row.Median, row.Q3, row.Max)
	}
	return s.err
}

func writeMonthlyTrend(f *excelize.File, r Report) error {
	s := &sheetWriter{file: f, sheet: SheetMonthlyTrend}
	s.header("Period", "Year", "Month", models.ColumnPM25, models.ColumnPM10)
	for _, p := range r.MonthlyTrend {
		s.writeRow(p.Period, p.Year, p.Month, p.PM25, p.PM10)
	}
	return s.err
}

func writeCorrelation(f *excelize.File, r Report) error {
	s := &sheetWriter{file: f, sheet: SheetCorrelation}
	header := append([]string{""}, r.Correlation.Columns...)
	s.header(header...)
	for i, column := range r.Correlation.Columns {
		row := make([]interface{}, 0, len(header))
		row = append(row, column)
		for _, v := range r.Correlation.Values[i] {
			row = append(row, v)
		}
		s.writeRow(row...)
	}
	return s.err
}

func writeBoxplots(f *excelize.File, sheet string, boxes []models.BoxplotStats) error {
	s := &sheetWriter{file: f, sheet: sheet}
	s.header("Station", "Count", "Min", "Q1", "Median", "Q3", "Max", "IQR",
		"Lower Fence", "Upper Fence", "Whisker Low", "Whisker High", "Outliers")
	for _, b := range boxes {
		s.writeRow(b.Station, b.Count, b.Min, b.Q1, b.Median, b.Q3, b.Max, b.IQR,
			b.LowerFence, b.UpperFence, b.WhiskerLow, b.WhiskerHigh, len(b.Outliers))
	}
	return s.err
}
