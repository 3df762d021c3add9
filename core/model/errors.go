package model

import "errors"

// Sentinel errors surfaced by the component model. The stepper wraps these
// with component id and step index before handing them to core/report.
var (
	// ErrNegativeSoC indicates a vehicle's SoC fell below zero on arrival and
	// the scenario's negative-SoC policy is "abort" (the default).
	ErrNegativeSoC = errors.New("model: vehicle soc would go negative")

	// ErrUnsatisfiableGC indicates a grid connector remains over its max_power
	// after a strategy allocation that could not be reduced to fit.
	ErrUnsatisfiableGC = errors.New("model: grid connector over limit")

	// ErrUnknownVehicleType is a fatal load-time error.
	ErrUnknownVehicleType = errors.New("model: unknown vehicle type")

	// ErrOrphanedComponent is a fatal load-time error: a station, battery or
	// PV references a grid connector that does not exist.
	ErrOrphanedComponent = errors.New("model: component references unknown parent")

	// ErrMalformedCost is a fatal load-time error for an unrecognised cost
	// document shape.
	ErrMalformedCost = errors.New("model: malformed cost definition")
)
