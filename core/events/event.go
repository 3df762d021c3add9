// Package events holds the time-ordered event stream that drives the
// stepper: vehicle arrival/departure, fixed-load and local-generation
// updates, grid-operator signals, and schedule updates.
package events

import "time"

// Event is a tagged variant carrying the two timestamps the stepper cares
// about: when it becomes known (SignalTime) and when its effect begins
// (StartTime). Strategies only ever see events whose SignalTime has
// already passed; the stepper only applies events whose StartTime has
// passed.
type Event interface {
	SignalTime() time.Time
	StartTime() time.Time
}

// base is embedded by every concrete event to satisfy Event without
// repeating the two timestamp accessors.
type base struct {
	Signal time.Time
	Start  time.Time
}

func (b base) SignalTime() time.Time { return b.Signal }
func (b base) StartTime() time.Time  { return b.Start }

// ArrivalEvent attaches a vehicle to a station and updates its SoC.
type ArrivalEvent struct {
	base
	VehicleID          string
	Station            string
	SoCDelta           float64 // <= 0, energy consumed while away
	DesiredSoC         float64
	EstimatedDeparture time.Time
}

// DepartureEvent detaches a vehicle from its station.
type DepartureEvent struct {
	base
	VehicleID        string
	EstimatedArrival time.Time
}

// FixedLoadUpdate sets one named fixed-load series on a grid connector.
type FixedLoadUpdate struct {
	base
	GridConnector string
	Name          string
	PowerKW       float64
}

// LocalGenerationUpdate sets one named local-generation series on a grid
// connector. Generation enters as negative load (feed-in).
type LocalGenerationUpdate struct {
	base
	GridConnector string
	Name          string
	PowerKW       float64
}

// GridOperatorSignal updates max_power, cost, charging_windows, or a target
// schedule value on a grid connector. Fields left nil are left unchanged.
type GridOperatorSignal struct {
	base
	GridConnector  string
	MaxPower       *float64
	Cost           *CostSignal
	ChargingWindow *bool
	Schedule       *float64
}

// CostSignal is the wire-friendly shape of model.Cost carried by a
// GridOperatorSignal, decoupling core/events from core/model's Cost type
// shape at the event-decoding boundary.
type CostSignal struct {
	Type  int
	Value []float64
}

// ScheduleUpdate sets a per-interval target kW value on a vehicle or on a
// grid connector (exactly one of VehicleID/GridConnector is set).
type ScheduleUpdate struct {
	base
	VehicleID     string
	GridConnector string
	TargetKW      float64
}

// New* constructors stamp the embedded base so callers never forget either
// timestamp.

func NewArrival(signalAt, startAt time.Time, vehicleID, station string, socDelta, desiredSoC float64, eta time.Time) ArrivalEvent {
	return ArrivalEvent{base: base{Signal: signalAt, Start: startAt}, VehicleID: vehicleID, Station: station, SoCDelta: socDelta, DesiredSoC: desiredSoC, EstimatedDeparture: eta}
}

func NewDeparture(signalAt, startAt time.Time, vehicleID string, eta time.Time) DepartureEvent {
	return DepartureEvent{base: base{Signal: signalAt, Start: startAt}, VehicleID: vehicleID, EstimatedArrival: eta}
}

func NewFixedLoadUpdate(signalAt, startAt time.Time, gc, name string, kw float64) FixedLoadUpdate {
	return FixedLoadUpdate{base: base{Signal: signalAt, Start: startAt}, GridConnector: gc, Name: name, PowerKW: kw}
}

func NewLocalGenerationUpdate(signalAt, startAt time.Time, gc, name string, kw float64) LocalGenerationUpdate {
	return LocalGenerationUpdate{base: base{Signal: signalAt, Start: startAt}, GridConnector: gc, Name: name, PowerKW: kw}
}

func NewScheduleUpdate(signalAt, startAt time.Time, vehicleID, gc string, target float64) ScheduleUpdate {
	return ScheduleUpdate{base: base{Signal: signalAt, Start: startAt}, VehicleID: vehicleID, GridConnector: gc, TargetKW: target}
}

func NewGridOperatorSignal(signalAt, startAt time.Time, gc string, maxPower *float64, cost *CostSignal, window *bool, schedule *float64) GridOperatorSignal {
	return GridOperatorSignal{
		base:           base{Signal: signalAt, Start: startAt},
		GridConnector:  gc,
		MaxPower:       maxPower,
		Cost:           cost,
		ChargingWindow: window,
		Schedule:       schedule,
	}
}
