package chat

import (
	"testing"

	"github.com/ragworks/finchat/internal/domain"
	"github.com/ragworks/finchat/internal/ragapi"
)

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{"$45.23 Billion", 45.23e9, false},
		{"$45.23 B", 45.23e9, false},
		{"$512.34 Million", 512.34e6, false},
		{"$512.34 M", 512.34e6, false},
		{"45.23", 45.23, false},
		{"$45.23 Trillion", 45.23, false}, // unrecognized suffix passes through
		{"", 0, true},
		{"$abc Billion", 0, true},
	}
	for _, tt := range tests {
		got, err := normalizeValue(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Errorf("normalizeValue(%q): expected error", tt.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("normalizeValue(%q): %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("normalizeValue(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestParseGrowth(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{"83.21", 83.21, false},
		{"83.21%", 83.21, false},
		{" -9.40% ", -9.4, false},
		{"n/a", 0, true},
	}
	for _, tt := range tests {
		got, err := parseGrowth(tt.raw)
		if tt.wantErr != (err != nil) {
			t.Errorf("parseGrowth(%q) err = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("parseGrowth(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestBuildChart(t *testing.T) {
	series := &ragapi.FinancialSeries{
		Label: "Amazon Net Income",
		Annual: []ragapi.AnnualRecord{
			{Date: "2020", Value: "$21.33 Billion", Growth: "84.08"},
			{Date: "2021", Value: "$33.36 Billion", Growth: "56.41%"},
		},
	}

	chart := buildChart(series)
	if chart == nil {
		t.Fatal("buildChart returned nil for well-formed input")
	}
	if chart.Title != "Amazon Net Income" {
		t.Errorf("title = %q", chart.Title)
	}
	if chart.XAxis != "Year" || chart.YAxis != "Value" || chart.Y2Axis != "Growth" {
		t.Errorf("axis labels = %q/%q/%q", chart.XAxis, chart.YAxis, chart.Y2Axis)
	}
	if len(chart.X) != 2 || chart.X[0] != "2020" {
		t.Errorf("x = %v", chart.X)
	}
	if len(chart.Series) != 2 {
		t.Fatalf("series count = %d", len(chart.Series))
	}
	bars, line := chart.Series[0], chart.Series[1]
	if bars.Kind != domain.SeriesBar || bars.SecondaryAxis {
		t.Errorf("value series = %+v", bars)
	}
	if line.Kind != domain.SeriesLine || !line.SecondaryAxis {
		t.Errorf("growth series = %+v", line)
	}
	if bars.Y[0] != 21.33e9 {
		t.Errorf("value[0] = %v", bars.Y[0])
	}
	if line.Y[1] != 56.41 {
		t.Errorf("growth[1] = %v", line.Y[1])
	}
}

func TestBuildChartMalformedRecord(t *testing.T) {
	series := &ragapi.FinancialSeries{
		Label: "Revenue",
		Annual: []ragapi.AnnualRecord{
			{Date: "2020", Value: "$21.33 Billion", Growth: "84.08"},
			{Date: "2021", Value: "not a number", Growth: "56.41"},
		},
	}
	if chart := buildChart(series); chart != nil {
		t.Error("buildChart should drop the whole chart on a malformed record")
	}
}
