package metrics

// Package metrics defines the report.Writer sink registry used to turn a
// run's metrics configuration into a fan-out writer. Concrete sinks
// (Prometheus, InfluxDB, eco/KPI) live in infra/metrics and register
// themselves here by name through RegisterMetricsSink; NewMetricsSink
// resolves zero, one, or many configured sinks into NopSink, the sink
// itself, or a MultiSink.
