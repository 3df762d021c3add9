package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/kilianp07/spicev2g/core/metrics/eco"
	"github.com/kilianp07/spicev2g/core/report"
)

func TestEcoSink_Write(t *testing.T) {
	reg := prometheus.NewRegistry()
	store := eco.NewMemoryStore()
	sink := NewEcoSink(store, 50, 0.25, reg)

	day := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	row := report.NewRow(0, day)
	row.Stations["station-1"] = -4 // V2G export: negative power is feed-in

	if err := sink.Write(context.Background(), row); err != nil {
		t.Fatalf("write: %v", err)
	}

	records, err := store.Query("station-1", day, day)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if got, want := records[0].InjectedKWh, 1.0; got != want {
		t.Errorf("injected = %v, want %v", got, want)
	}

	gauge := &dto.Metric{}
	m, err := sink.injected.GetMetricWithLabelValues("station-1", "2026-03-01")
	if err != nil {
		t.Fatalf("get gauge: %v", err)
	}
	if err := m.Write(gauge); err != nil {
		t.Fatalf("write gauge: %v", err)
	}
	if gauge.GetGauge().GetValue() != 1.0 {
		t.Errorf("gauge value = %v, want 1.0", gauge.GetGauge().GetValue())
	}
}

func TestEcoSink_WriteSkipsZeroPower(t *testing.T) {
	reg := prometheus.NewRegistry()
	store := eco.NewMemoryStore()
	sink := NewEcoSink(store, 50, 0.25, reg)

	row := report.NewRow(0, time.Now())
	row.Stations["idle"] = 0

	if err := sink.Write(context.Background(), row); err != nil {
		t.Fatalf("write: %v", err)
	}
	records, err := store.Query("idle", time.Now().AddDate(0, 0, -1), time.Now().AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records for idle station, got %d", len(records))
	}
}
