package metrics

import (
	"context"

	"github.com/kilianp07/spicev2g/core/report"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink mirrors each recorded report.Row into Prometheus gauges/counters.
// The server itself is started separately; PromSink only registers and
// updates collectors.
type PromSink struct {
	gcLoad     *prometheus.GaugeVec
	gcPrice    *prometheus.GaugeVec
	gcSurplus  *prometheus.GaugeVec
	vehicleSoC *prometheus.GaugeVec
	stepErrors *prometheus.CounterVec
}

// NewPromSink registers the simulation metrics on the default registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on reg, defaulting to the global
// registerer when reg is nil.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		gcLoad: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "v2gsim_gc_load_kw",
			Help: "Grid connector load for the most recently recorded interval",
		}, []string{"gc_id"}),
		gcPrice: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "v2gsim_gc_price",
			Help: "Grid connector price for the most recently recorded interval",
		}, []string{"gc_id"}),
		gcSurplus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "v2gsim_gc_surplus_kw",
			Help: "Unconsumed local-generation surplus at the grid connector",
		}, []string{"gc_id"}),
		vehicleSoC: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "v2gsim_vehicle_soc",
			Help: "Vehicle state of charge for the most recently recorded interval",
		}, []string{"vehicle_id"}),
		stepErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "v2gsim_step_errors_total",
			Help: "Fatal-for-this-step conditions recorded per component",
		}, []string{"component"}),
	}
	for _, c := range []prometheus.Collector{s.gcLoad, s.gcPrice, s.gcSurplus, s.vehicleSoC, s.stepErrors} {
		if err := registerOrReuse(reg, c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func registerOrReuse(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

// Write updates every gauge/counter from row. It never returns an error:
// Prometheus collectors cannot fail to observe a value.
func (s *PromSink) Write(_ context.Context, row report.Row) error {
	for gcID, gr := range row.GridConnectors {
		s.gcLoad.WithLabelValues(gcID).Set(gr.Load)
		s.gcPrice.WithLabelValues(gcID).Set(gr.Price)
		s.gcSurplus.WithLabelValues(gcID).Set(gr.Surplus)
	}
	for vid, soc := range row.VehicleSoC {
		s.vehicleSoC.WithLabelValues(vid).Set(soc)
	}
	for component := range row.Errors {
		s.stepErrors.WithLabelValues(component).Inc()
	}
	return nil
}

// Close is a no-op: Prometheus collectors are unregistered by process exit.
func (s *PromSink) Close() error { return nil }
