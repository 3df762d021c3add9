package scenario

import (
	"fmt"
	"time"

	"github.com/kilianp07/spicev2g/core/events"
	"github.com/kilianp07/spicev2g/core/model"
)

// BuildOptions resolves the Open Questions a Document cannot answer for
// itself: the weekday convention for core_standing_time.full_days, and the
// negative-SoC policy for arrivals.
type BuildOptions struct {
	WeekdayConvention WeekdayConvention
	NegSoCPolicy      NegativeSoCPolicy
}

// Build validates a Document and constructs the World it describes,
// failing closed on a component that references an unknown component (§7
// input validation — fatal, surfaced at load). The vehicle, station and
// grid-connector ids named inside events are not checked here; the stepper
// logs and skips an event whose target does not exist.
func Build(doc *Document, opts BuildOptions) (*World, error) {
	if opts.WeekdayConvention == WeekdayConventionUnset && doc.Scenario.CoreStandingTime != nil && len(doc.Scenario.CoreStandingTime.FullDays) > 0 {
		return nil, fmt.Errorf("scenario: core_standing_time.full_days requires an explicit weekday convention")
	}
	if doc.Scenario.IntervalMinutes <= 0 {
		return nil, fmt.Errorf("scenario: interval must be positive minutes")
	}
	interval := time.Duration(doc.Scenario.IntervalMinutes) * time.Minute

	w := NewWorld(Clock{StartTime: doc.Scenario.StartTime, Interval: interval})
	w.NegSoCPolicy = opts.NegSoCPolicy
	if doc.Scenario.CoreStandingTime != nil {
		w.CoreStandingTime = buildCoreStandingTime(doc.Scenario.CoreStandingTime, opts.WeekdayConvention)
	}

	for name, vt := range doc.Components.VehicleTypes {
		w.VehicleTypes[name] = model.VehicleType{
			Name:              name,
			Capacity:          vt.Capacity,
			Mileage:           vt.Mileage,
			ChargingCurve:     model.NewLoadingCurve(curvePoints(vt.ChargingCurve)),
			MinChargingPower:  vt.MinChargingPower,
			V2G:               vt.V2G,
			V2GPowerFactor:    vt.V2GPowerFactor,
			DischargeLimit:    vt.DischargeLimit,
			BatteryEfficiency: vt.BatteryEfficiency,
		}
	}

	for id, gc := range doc.Components.GridConnectors {
		cost, err := decodeCost(gc.Cost)
		if err != nil {
			return nil, fmt.Errorf("scenario: grid connector %q: %w", id, err)
		}
		maxPower := gc.MaxPower
		if maxPower <= 0 {
			maxPower = model.InfiniteCapacity
		}
		out := model.NewGridConnector(id, maxPower)
		out.VoltageLevel = voltageLevel(gc.VoltageLevel)
		out.Cost = cost
		out.GridOperator = gc.GridOperator
		w.GCs[id] = out
	}

	for id, cs := range doc.Components.ChargingStations {
		if _, ok := w.GCs[cs.Parent]; !ok {
			return nil, fmt.Errorf("scenario: charging station %q: %w %q", id, model.ErrOrphanedComponent, cs.Parent)
		}
		w.Stations[id] = &model.ChargingStation{
			ID:                  id,
			ParentGridConnector: cs.Parent,
			MaxPower:            cs.MaxPower,
			MinPower:            cs.MinPower,
		}
	}

	for id, b := range doc.Components.Batteries {
		if _, ok := w.GCs[b.Parent]; !ok {
			return nil, fmt.Errorf("scenario: battery %q: %w %q", id, model.ErrOrphanedComponent, b.Parent)
		}
		capacity := b.Capacity
		if capacity < 0 {
			capacity = model.InfiniteCapacity
		}
		curve := model.NewLoadingCurve(curvePoints(b.ChargingCurve))
		w.Batteries[id] = &model.StationaryBattery{
			ID:                  id,
			ParentGridConnector: b.Parent,
			Battery:             *model.NewBattery(capacity, b.SoC, curve),
		}
	}

	for id, pv := range doc.Components.Photovoltaics {
		if _, ok := w.GCs[pv.Parent]; !ok {
			return nil, fmt.Errorf("scenario: photovoltaic %q: %w %q", id, model.ErrOrphanedComponent, pv.Parent)
		}
		w.PVs[id] = &model.PV{ID: id, ParentGridConnector: pv.Parent, NominalPower: pv.NominalPower}
	}

	for id, v := range doc.Components.Vehicles {
		vt, ok := w.VehicleTypes[v.VehicleType]
		if !ok {
			return nil, fmt.Errorf("scenario: vehicle %q: %w %q", id, model.ErrUnknownVehicleType, v.VehicleType)
		}
		battery := model.NewBattery(vt.Capacity, v.SoC, vt.ChargingCurve)
		battery.Efficiency = vt.Efficiency()
		vehicle := &model.Vehicle{
			ID:         id,
			Type:       v.VehicleType,
			Battery:    *battery,
			DesiredSoC: v.DesiredSoC,
		}
		if v.ConnectedChargingStation != "" {
			station, ok := w.Stations[v.ConnectedChargingStation]
			if !ok {
				return nil, fmt.Errorf("scenario: vehicle %q: %w %q", id, model.ErrOrphanedComponent, v.ConnectedChargingStation)
			}
			vehicle.ConnectedStation = station.ID
			station.CurrentVehicle = id
		}
		if v.EstimatedTimeOfDeparture != nil {
			vehicle.EstimatedDeparture = *v.EstimatedTimeOfDeparture
		}
		w.Vehicles[id] = vehicle
	}

	if err := buildEvents(w, doc); err != nil {
		return nil, err
	}

	return w, nil
}

func buildCoreStandingTime(doc *CoreStandingTimeDoc, conv WeekdayConvention) *CoreStandingTime {
	cst := &CoreStandingTime{FullDays: doc.FullDays, Convention: conv}
	for _, t := range doc.Times {
		cst.Times = append(cst.Times, DailyWindow{
			StartHour: t.Start[0], StartMinute: t.Start[1],
			EndHour: t.End[0], EndMinute: t.End[1],
		})
	}
	return cst
}

func buildEvents(w *World, doc *Document) error {
	for _, e := range doc.Events.VehicleEvents {
		switch e.Kind {
		case "arrival":
			w.Events.Add(events.NewArrival(e.SignalTime, e.StartTime, e.VehicleID, e.Station, e.SoCDelta, e.DesiredSoC, derefTime(e.EstimatedTimeOfDeparture)))
		case "departure":
			w.Events.Add(events.NewDeparture(e.SignalTime, e.StartTime, e.VehicleID, derefTime(e.EstimatedTimeOfArrival)))
		default:
			return fmt.Errorf("scenario: vehicle event for %q: unknown kind %q", e.VehicleID, e.Kind)
		}
	}
	for _, e := range doc.Events.FixedLoad {
		w.Events.Add(events.NewFixedLoadUpdate(e.StartTime, e.StartTime, e.GridConnector, e.Name, e.PowerKW))
	}
	for _, e := range doc.Events.LocalGeneration {
		w.Events.Add(events.NewLocalGenerationUpdate(e.StartTime, e.StartTime, e.GridConnector, e.Name, e.PowerKW))
	}
	for _, e := range doc.Events.ScheduleUpdates {
		w.Events.Add(events.NewScheduleUpdate(e.SignalTime, e.StartTime, e.VehicleID, e.GridConnector, e.TargetKW))
	}
	for _, e := range doc.Events.GridOperatorSignals {
		cs, err := costSignal(e.Cost)
		if err != nil {
			return fmt.Errorf("scenario: grid operator signal for %q: %w", e.GridConnector, err)
		}
		w.Events.Add(events.NewGridOperatorSignal(e.SignalTime, e.StartTime, e.GridConnector, e.MaxPower, cs, e.ChargingWindow, e.Schedule))
	}
	return nil
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
