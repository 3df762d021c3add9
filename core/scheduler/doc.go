package scheduler

// Package scheduler implements day-ahead charging plans that pre-populate
// model.Vehicle.Schedule for the Schedule strategy. It builds per-vehicle
// power targets respecting plug-in availability and curve-peak
// constraints. Plans can be exported to JSON or CSV (pkg/export).
