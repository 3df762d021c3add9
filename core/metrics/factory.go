package metrics

import (
	"github.com/kilianp07/spicev2g/core/factory"
	"github.com/kilianp07/spicev2g/core/report"
)

var sinkRegistry = factory.NewRegistry[report.Writer]()

// RegisterMetricsSink adds a report.Writer factory identified by name. Call
// from an init() in infra/metrics so selecting a sink by name never requires
// editing this package.
func RegisterMetricsSink(name string, f factory.Factory[report.Writer]) error {
	return sinkRegistry.Register(name, f)
}

// NewMetricsSink builds a report.Writer from cfgs: NopSink for none, the sink
// itself for exactly one, or a fan-out MultiSink for several.
func NewMetricsSink(cfgs []factory.ModuleConfig) (report.Writer, error) {
	if len(cfgs) == 0 {
		return NopSink{}, nil
	}
	if len(cfgs) == 1 {
		return sinkRegistry.Create(cfgs[0])
	}
	sinks := make([]report.Writer, len(cfgs))
	for i, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			return nil, err
		}
		sinks[i] = s
	}
	return NewMultiSink(sinks...), nil
}
