// Package report defines the per-interval output row and run summary the
// stepper produces, the Writer interface, and the JSONL and SQLite writers
// that persist them; the InfluxDB and Prometheus writers live in
// infra/metrics.
package report

import "time"

// Row is one interval's worth of recorded state (§6 Persistent output):
// timestep, time, per-GC load/fixed-load/feed-in/surplus and per-CS power,
// per-vehicle SoC, and the active price and schedule target.
type Row struct {
	Timestep int
	Time     time.Time
	Interval time.Duration // Δt this row covers; zero rows (e.g. in tests) are treated as one hour by Summarize

	GridConnectors map[string]GCRow
	Stations       map[string]float64 // CS id -> power kW
	VehicleSoC     map[string]float64 // vehicle id -> SoC

	// Errors captures fatal-for-this-step conditions (§7): component id ->
	// error message. A non-empty map means the row's allocation did not
	// fully satisfy every invariant, but the row is still recorded.
	Errors map[string]string
}

// GCRow is the per-grid-connector slice of a Row.
type GCRow struct {
	Load       float64 // total kW drawn from the grid this interval
	FixedLoad  float64
	FeedIn     float64 // local generation fed in, as a positive kW; V2G export is not included
	Surplus    float64 // local generation in excess of what was consumed
	StationSum float64 // sum of charging-station and stationary-battery power
	Price      float64
	Schedule   float64 // target kW, 0 if none set
}

// NewRow returns a Row with initialized maps.
func NewRow(step int, at time.Time) Row {
	return Row{
		Timestep:       step,
		Time:           at,
		GridConnectors: make(map[string]GCRow),
		Stations:       make(map[string]float64),
		VehicleSoC:     make(map[string]float64),
		Errors:         make(map[string]string),
	}
}
