package charts

import (
	"bytes"
	"errors"
	"testing"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
)

var pngMagic = []byte("\x89PNG")

func TestTrend(t *testing.T) {
	series := []analytics.MonthTotals{
		{Year: 2024, Month: 1, Income: core.Money{Cents: 300000}, Expense: core.Money{Cents: 120000}},
		{Year: 2024, Month: 2, Income: core.Money{Cents: 300000}, Expense: core.Money{Cents: 180000}},
		{Year: 2024, Month: 3, Income: core.Money{Cents: 310000}, Expense: core.Money{Cents: 90000}},
	}
	png, err := Trend(series)
	if err != nil {
		t.Fatalf("Trend() error = %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Error("Trend() did not produce a PNG")
	}
}

func TestTrend_NoData(t *testing.T) {
	tests := []struct {
		name   string
		series []analytics.MonthTotals
	}{
		{"empty", nil},
		{"single month", []analytics.MonthTotals{{Year: 2024, Month: 1, Income: core.Money{Cents: 1}}}},
		{"all zero", []analytics.MonthTotals{{Year: 2024, Month: 1}, {Year: 2024, Month: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Trend(tt.series); !errors.Is(err, ErrNoData) {
				t.Errorf("Trend() error = %v, want ErrNoData", err)
			}
		})
	}
}

func TestCategories(t *testing.T) {
	png, err := Categories([]analytics.CategoryAmount{
		{Category: "Food", Amount: core.Money{Cents: 15000}, Percentage: 60},
		{Category: "Bills", Amount: core.Money{Cents: 10000}, Percentage: 40},
	})
	if err != nil {
		t.Fatalf("Categories() error = %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Error("Categories() did not produce a PNG")
	}

	if _, err := Categories(nil); !errors.Is(err, ErrNoData) {
		t.Errorf("Categories(nil) error = %v, want ErrNoData", err)
	}
}
