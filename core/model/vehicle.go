package model

import "time"

// Vehicle is one fleet member: a named type plus an instance battery and
// connection state. Vehicles exist for the whole simulation; departures and
// arrivals only toggle ConnectedStation and apply soc_delta.
type Vehicle struct {
	ID      string
	Type    string // VehicleType.Name
	Battery Battery

	ConnectedStation   string // empty when away
	EstimatedDeparture time.Time
	EstimatedArrival   time.Time // set on departure, informational
	DesiredSoC         float64
	Schedule           *float64 // optional per-interval target kW, nil if unset
}

// Connected reports whether the vehicle is currently plugged in.
func (v Vehicle) Connected() bool { return v.ConnectedStation != "" }

// ApplySoCDelta returns the vehicle's SoC plus a (typically negative)
// soc_delta, and whether that sum is negative; it does not modify the
// vehicle. The caller stores the result and, if it is negative, resolves it
// per the scenario's negative-SoC policy (abort, continue, or clamp to
// zero) — ApplySoCDelta itself only performs the arithmetic and reports
// whether the result went negative, leaving policy enforcement to the
// stepper so load-time validation and per-policy behavior stay in one
// place (core/scenario).
func (v *Vehicle) ApplySoCDelta(delta float64) (newSoC float64, negative bool) {
	soc := v.Battery.SoC + delta
	return soc, soc < 0
}
