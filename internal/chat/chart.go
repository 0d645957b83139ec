package chat

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ragworks/finchat/internal/domain"
	"github.com/ragworks/finchat/internal/ragapi"
)

var (
	million = decimal.NewFromInt(1_000_000)
	billion = decimal.NewFromInt(1_000_000_000)
)

// buildChart converts an annual financial series into the two-series chart
// payload: bars of normalized values plus a growth line on a secondary axis.
// The chart is advisory, so any malformed record degrades it to absent
// rather than failing the retrieval stage.
func buildChart(series *ragapi.FinancialSeries) *domain.Chart {
	n := len(series.Annual)
	x := make([]string, 0, n)
	values := make([]float64, 0, n)
	growth := make([]float64, 0, n)

	for _, rec := range series.Annual {
		v, err := normalizeValue(rec.Value)
		if err != nil {
			return nil
		}
		g, err := parseGrowth(rec.Growth)
		if err != nil {
			return nil
		}
		x = append(x, rec.Date)
		values = append(values, v)
		growth = append(growth, g)
	}

	return &domain.Chart{
		Title:  series.Label,
		X:      x,
		XAxis:  "Year",
		YAxis:  "Value",
		Y2Axis: "Growth",
		Series: []domain.ChartSeries{
			{Name: "Value", Kind: domain.SeriesBar, Y: values},
			{Name: "Growth", Kind: domain.SeriesLine, Y: growth, SecondaryAxis: true},
		},
	}
}

// normalizeValue parses a value like "$45.23 Billion" into its plain float:
// Million/M scales by 1e6, Billion/B by 1e9, an unrecognized or missing
// suffix by 1.
func normalizeValue(raw string) (float64, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty value")
	}
	amount, err := decimal.NewFromString(strings.TrimPrefix(fields[0], "$"))
	if err != nil {
		return 0, fmt.Errorf("parse value %q: %w", raw, err)
	}
	if len(fields) > 1 {
		switch fields[1] {
		case "Million", "M":
			amount = amount.Mul(million)
		case "Billion", "B":
			amount = amount.Mul(billion)
		}
	}
	return amount.InexactFloat64(), nil
}

// parseGrowth accepts "83.21" and "83.21%".
func parseGrowth(raw string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if err != nil {
		return 0, fmt.Errorf("parse growth %q: %w", raw, err)
	}
	return d.InexactFloat64(), nil
}
