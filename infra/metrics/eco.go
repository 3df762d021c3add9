package metrics

import (
	"context"

	"github.com/kilianp07/spicev2g/core/metrics/eco"
	"github.com/kilianp07/spicev2g/core/report"
	"github.com/prometheus/client_golang/prometheus"
)

// EcoSink folds each interval's per-station power into eco.Store records
// (V2G export as injected energy, charging as consumed energy) and mirrors
// the running daily totals into Prometheus gauges.
type EcoSink struct {
	store         eco.Store
	factor        float64
	intervalHours float64
	injected      *prometheus.GaugeVec
	ratio         *prometheus.GaugeVec
	co2           *prometheus.GaugeVec
}

// NewEcoSink creates a sink with Prometheus gauges registered on reg.
// intervalHours is the scenario's fixed step length, needed to convert a
// station's instantaneous power into energy for the interval since
// report.Row does not itself carry the clock's interval.
func NewEcoSink(store eco.Store, factor, intervalHours float64, reg prometheus.Registerer) *EcoSink {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	inj := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "v2gsim_station_injected_energy_kwh",
		Help: "Daily V2G-injected energy per station",
	}, []string{"station_id", "day"})
	ratio := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "v2gsim_station_energy_ratio",
		Help: "Daily ratio of injected to consumed energy per station",
	}, []string{"station_id", "day"})
	co2 := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "v2gsim_station_co2_avoided_grams",
		Help: "Daily CO2 avoided per station",
	}, []string{"station_id", "day"})
	reg.MustRegister(inj, ratio, co2)
	return &EcoSink{store: store, factor: factor, intervalHours: intervalHours, injected: inj, ratio: ratio, co2: co2}
}

// Write folds row's per-station power into the eco store and refreshes the
// affected stations' Prometheus gauges.
func (s *EcoSink) Write(_ context.Context, row report.Row) error {
	for stationID, power := range row.Stations {
		if power == 0 {
			continue
		}
		kwh := power * s.intervalHours
		rec := eco.Record{VehicleID: stationID, Date: row.Time}
		if power < 0 {
			rec.InjectedKWh = -kwh
		} else {
			rec.ConsumedKWh = kwh
		}
		if err := s.store.Add(rec); err != nil {
			return err
		}
		day := eco.Day(row.Time)
		dayStr := day.Format("2006-01-02")
		records, err := s.store.Query(stationID, day, day)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			continue
		}
		rr := records[0]
		s.injected.WithLabelValues(stationID, dayStr).Set(rr.InjectedKWh)
		s.ratio.WithLabelValues(stationID, dayStr).Set(rr.EnergyRatio())
		s.co2.WithLabelValues(stationID, dayStr).Set(rr.CO2Avoided(s.factor))
	}
	return nil
}

// Close is a no-op; the underlying eco.Store owns its own lifecycle.
func (s *EcoSink) Close() error { return nil }
