package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"

	"air-quality-platform/internal/config"
	"air-quality-platform/internal/export"
	"air-quality-platform/internal/models"
	"air-quality-platform/internal/services"
	"air-quality-platform/pkg/logging"
	"air-quality-platform/pkg/metrics"
)

// Report loads the combined CSV without a database, prints the station
// ranking and optionally writes every dashboard table to a workbook.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	dataFile := flag.String("data-file", cfg.Dataset.Path, "Combined air quality CSV")
	threshold := flag.Float64("threshold", cfg.Analytics.PollutionThreshold, "PM2.5 level counted by Frequency")
	xlsxPath := flag.String("xlsx", "", "Write all dashboard tables to this XLSX file")
	flag.Parse()

	logger := logging.NewStructuredLogger("air-quality-report", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	metricsCollector := metrics.NewCollectorWithRegistry("air_quality_report", prometheus.NewRegistry())
	ctx := context.Background()

	ds, result, err := services.NewDatasetLoader(nil, logger, metricsCollector).LoadCSVFile(ctx, *dataFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", *dataFile, err)
		os.Exit(1)
	}

	bounds := ds.Bounds()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("AIR QUALITY DATASET")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Source:             %s\n", result.Source)
	fmt.Printf("Total Records:      %d\n", result.TotalRecords)
	fmt.Printf("Valid Records:      %d\n", result.ValidRecords)
	fmt.Printf("Rejected Records:   %d\n", result.RejectedRecords)
	fmt.Printf("Stations:           %d\n", result.Stations)
	fmt.Printf("Date Range:         %s .. %s\n", bounds.Min.Format("2006-01-02"), bounds.Max.Format("2006-01-02"))
	fmt.Println()

	dashboard := services.NewDashboardService(ds, *threshold, cfg.Analytics.HistogramBins, logger, metricsCollector)
	ranking := dashboard.Ranking(ctx, threshold)

	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("STATION RANKING (PM2.5 > %g)\n", *threshold)
	fmt.Println(strings.Repeat("=", 80))

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Rank\tStation\tRecency\tFrequency\tMonetary\tRFM_Score\t")
	for i, s := range ranking {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\t%s\t\n", i+1, s.Station, s.Recency, s.Frequency, formatValue(s.Monetary), formatValue(s.RFMScore))
	}
	tw.Flush()

	if *xlsxPath == "" {
		return
	}

	pm25, err := dashboard.Boxplots(ctx, models.ColumnPM25)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to compute boxplots: %v\n", err)
		os.Exit(1)
	}
	pm10, err := dashboard.Boxplots(ctx, models.ColumnPM10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to compute boxplots: %v\n", err)
		os.Exit(1)
	}

	full := services.DashboardFilter{}
	report := export.Report{
		Threshold:    *threshold,
		Ranking:      ranking,
		Summary:      dashboard.Summary(ctx, full),
		MonthlyTrend: dashboard.MonthlyTrend(ctx, full, true),
		Correlation:  dashboard.Correlation(ctx, full),
		BoxplotsPM25: pm25,
		BoxplotsPM10: pm10,
	}

	if err := export.SaveAs(*xlsxPath, report); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to export workbook: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nWorkbook written to %s\n", *xlsxPath)
}

func formatValue(v *float64) string {
	if v == nil {
		return "NaN"
	}
	return fmt.Sprintf("%.2f", *v)
}
