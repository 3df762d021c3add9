package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/spicev2g/core/report"
)

func TestInfluxSink_Write(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	row := report.NewRow(1, now)
	row.GridConnectors["gc1"] = report.GCRow{Load: 5, FixedLoad: 1, FeedIn: 0, Surplus: 0.5, StationSum: 4, Price: 0.2, Schedule: 0}
	row.VehicleSoC["veh1"] = 0.55

	if err := sink.Write(context.Background(), row); err != nil {
		t.Fatalf("write error: %v", err)
	}

	gcPoint := write.NewPointWithMeasurement("gc_interval").
		AddTag("gc_id", "gc1").
		AddField("load_kw", 5.0).
		AddField("fixed_load_kw", 1.0).
		AddField("feed_in_kw", 0.0).
		AddField("surplus_kw", 0.5).
		AddField("station_sum_kw", 4.0).
		AddField("price", 0.2).
		AddField("schedule_kw", 0.0).
		SetTime(now)
	vehPoint := write.NewPointWithMeasurement("vehicle_interval").
		AddTag("vehicle_id", "veh1").
		AddField("soc", 0.55).
		SetTime(now)

	expGC := strings.TrimSpace(write.PointToLineProtocol(gcPoint, time.Nanosecond))
	expVeh := strings.TrimSpace(write.PointToLineProtocol(vehPoint, time.Nanosecond))
	got := strings.TrimSpace(body)
	if !strings.Contains(got, expGC) || !strings.Contains(got, expVeh) {
		t.Errorf("unexpected body:\n%s\nwant to contain:\n%s\nand:\n%s", got, expGC, expVeh)
	}
}

func TestInfluxSink_WriteEmptyRow(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	row := report.NewRow(0, time.Now())
	if err := sink.Write(context.Background(), row); err != nil {
		t.Fatalf("write error: %v", err)
	}
	if called {
		t.Fatalf("expected no HTTP call for an empty row")
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if sink != nil {
		t.Fatalf("expected nil sink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
