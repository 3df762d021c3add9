package scenario

import "time"

// Strategy allocates power to vehicles and stationary batteries for one
// interval. Implementations read and mutate World for the current step
// only — they never hold state across calls except what they stash on
// themselves (e.g. Distributed's per-GC admission window).
// Strategy.Step sets ChargingStation.CurrentPower and
// StationaryBattery.CurrentPower via World directly; the stepper performs the
// actual energy integration afterwards.
type Strategy interface {
	Step(w *World, dt time.Duration) error
}
