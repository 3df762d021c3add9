package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/spicev2g/core/factory"
	"github.com/kilianp07/spicev2g/core/metrics/eco"
	coremetrics "github.com/kilianp07/spicev2g/core/metrics"
	"github.com/kilianp07/spicev2g/infra/kpi"
	"github.com/kilianp07/spicev2g/core/report"
)

// init registers the built-in metrics sinks so selecting one by name in a
// run's configuration never requires editing core/metrics.
func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (report.Writer, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterMetricsSink("prometheus", func(map[string]any) (report.Writer, error) {
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterMetricsSink("influx", func(conf map[string]any) (report.Writer, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		sink := NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket)
		if sink == nil {
			return nil, fmt.Errorf("influx sink: backend unreachable at %s", c.URL)
		}
		return sink, nil
	})

	_ = coremetrics.RegisterMetricsSink("eco", func(conf map[string]any) (report.Writer, error) {
		var c struct {
			Backend         string  `json:"backend"`
			Path            string  `json:"path"`
			EmissionFactor  float64 `json:"emission_factor"`
			IntervalMinutes float64 `json:"interval_minutes"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		var store eco.Store
		switch c.Backend {
		case "", "memory":
			store = eco.NewMemoryStore()
		case "sqlite":
			s, err := kpi.NewSQLiteStore(c.Path)
			if err != nil {
				return nil, err
			}
			store = s
		default:
			return nil, fmt.Errorf("eco sink: unknown backend %q", c.Backend)
		}
		intervalHours := c.IntervalMinutes / 60
		if intervalHours <= 0 {
			intervalHours = 15.0 / 60
		}
		return NewEcoSink(store, c.EmissionFactor, intervalHours, prometheus.DefaultRegisterer), nil
	})
}
