package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/spicev2g/core/report"
	"github.com/kilianp07/spicev2g/infra/logger"
)

// InfluxSink writes each recorded report.Row to an InfluxDB instance using
// the official client, one point per grid connector plus one per vehicle.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns nil if
// the health check fails, so callers can fall back to a JSONL/SQLite writer
// instead of failing the whole run over a down metrics backend.
func NewInfluxSinkWithFallback(url, token, org, bucket string) report.Writer {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return nil
	}
	return sink
}

// Write persists row as one InfluxDB point per grid connector and one per
// connected vehicle, all stamped with row.Time.
func (s *InfluxSink) Write(ctx context.Context, row report.Row) error {
	points := make([]*write.Point, 0, len(row.GridConnectors)+len(row.VehicleSoC))
	for gcID, gr := range row.GridConnectors {
		p := write.NewPointWithMeasurement("gc_interval").
			AddTag("gc_id", gcID).
			AddField("load_kw", round3(gr.Load)).
			AddField("fixed_load_kw", round3(gr.FixedLoad)).
			AddField("feed_in_kw", round3(gr.FeedIn)).
			AddField("surplus_kw", round3(gr.Surplus)).
			AddField("station_sum_kw", round3(gr.StationSum)).
			AddField("price", round3(gr.Price)).
			AddField("schedule_kw", round3(gr.Schedule)).
			SetTime(row.Time)
		points = append(points, p)
	}
	for vid, soc := range row.VehicleSoC {
		p := write.NewPointWithMeasurement("vehicle_interval").
			AddTag("vehicle_id", vid).
			AddField("soc", round3(soc)).
			SetTime(row.Time)
		points = append(points, p)
	}
	if len(points) == 0 {
		return nil
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// Close flushes pending writes and releases the underlying HTTP client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
