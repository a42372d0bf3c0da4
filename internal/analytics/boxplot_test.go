package analytics

import (
	"reflect"
	"testing"

	"air-quality-platform/internal/models"
)

func TestBoxplots(t *testing.T) {
	var data []models.AirQualityObservation
	for i, v := range []float64{5, 1, 9, 2, 8, 3, 7, 4, 6, 100} {
		data = append(data, obs("Dongsi", day(2014, 1, i+1), f(v), nil))
	}
	data = append(data, obs("Tiantan", day(2014, 1, 1), nil, f(3)))

	boxes := Boxplots(data, models.ColumnPM25)
	if len(boxes) != 2 {
		t.Fatalf("len(Boxplots()) = %d, want 2", len(boxes))
	}

	box := boxes[0]
	checks := []struct {
		name string
		got  *float64
		want float64
	}{
		{"min", box.Min, 1},
		{"q1", box.Q1, 3.25},
		{"median", box.Median, 5.5},
		{"q3", box.Q3, 7.75},
		{"max", box.Max, 100},
		{"iqr", box.IQR, 4.5},
		{"lower fence", box.LowerFence, -3.5},
		{"upper fence", box.UpperFence, 14.5},
		{"whisker low", box.WhiskerLow, 1},
		{"whisker high", box.WhiskerHigh, 9},
	}
	for _, c := range checks {
		if c.got == nil || *c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if !reflect.DeepEqual(box.Outliers, []float64{100}) {
		t.Errorf("Outliers = %v, want [100]", box.Outliers)
	}
	if box.Count != 10 {
		t.Errorf("Count = %d, want 10", box.Count)
	}

	empty := boxes[1]
	if empty.Station != "Tiantan" || empty.Count != 0 || empty.Median != nil {
		t.Errorf("station without PM2.5 = %+v, want empty stats", empty)
	}
}

func TestBoxplotsSingleValue(t *testing.T) {
	boxes := Boxplots([]models.AirQualityObservation{obs("Dongsi", day(2014, 1, 1), nil, f(42))}, models.ColumnPM10)
	if len(boxes) != 1 {
		t.Fatalf("len(Boxplots()) = %d, want 1", len(boxes))
	}
	b := boxes[0]
	if *b.Min != 42 || *b.Q1 != 42 || *b.Median != 42 || *b.Q3 != 42 || *b.Max != 42 {
		t.Errorf("single value summary = %+v", b)
	}
	if len(b.Outliers) != 0 {
		t.Errorf("Outliers = %v, want none", b.Outliers)
	}
}
