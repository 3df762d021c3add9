package report

import (
	"testing"
	"time"
)

func TestSummarizeScalesEnergyByInterval(t *testing.T) {
	// 11 kW drawn for a 15-minute interval is 2.75 kWh, not 11 kWh.
	row := NewRow(0, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	row.Interval = 15 * time.Minute
	row.GridConnectors["gc1"] = GCRow{Load: 11, Price: 0.2}

	s := Summarize("run", []Row{row}, nil)
	if !almostEqual(s.DrawnEnergyKWh, 2.75) {
		t.Fatalf("DrawnEnergyKWh = %v, want 2.75", s.DrawnEnergyKWh)
	}
	if !almostEqual(s.TotalCost, 2.75*0.2) {
		t.Fatalf("TotalCost = %v, want %v", s.TotalCost, 2.75*0.2)
	}
}

func TestSummarizeDefaultsToOneHourWhenIntervalUnset(t *testing.T) {
	row := NewRow(0, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	row.GridConnectors["gc1"] = GCRow{Load: 11, Price: 0.2}

	s := Summarize("run", []Row{row}, nil)
	if !almostEqual(s.DrawnEnergyKWh, 11) {
		t.Fatalf("DrawnEnergyKWh = %v, want 11 (1-hour fallback)", s.DrawnEnergyKWh)
	}
}

func TestSummarizeAccumulatesAcrossRows(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r1 := NewRow(0, t0)
	r1.Interval = 15 * time.Minute
	r1.GridConnectors["gc1"] = GCRow{Load: 4}
	r2 := NewRow(1, t0.Add(15*time.Minute))
	r2.Interval = 15 * time.Minute
	r2.GridConnectors["gc1"] = GCRow{Load: 8}

	s := Summarize("run", []Row{r1, r2}, nil)
	if !almostEqual(s.DrawnEnergyKWh, 1+2) {
		t.Fatalf("DrawnEnergyKWh = %v, want 3", s.DrawnEnergyKWh)
	}
	if !almostEqual(s.PeakLoadKW["gc1"], 8) {
		t.Fatalf("PeakLoadKW = %v, want 8", s.PeakLoadKW["gc1"])
	}
}

func almostEqual(a, b float64) bool {
	const eps = 1e-9
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < eps
}
