package scenario

import (
	"github.com/kilianp07/spicev2g/core/events"
	"github.com/kilianp07/spicev2g/core/logger"
	"github.com/kilianp07/spicev2g/core/model"
)

// applyEvent dispatches one event against the world, mutating it in place.
// It returns a non-nil error only for the fatal negative-SoC-abort case;
// every other condition (unknown vehicle, unknown station, unknown GC) is
// logged and skipped rather than treated as fatal, since a malformed event
// stream should degrade gracefully instead of aborting the whole run.
func applyEvent(w *World, log logger.Logger, ev events.Event) error {
	switch e := ev.(type) {
	case events.ArrivalEvent:
		return applyArrival(w, log, e)
	case events.DepartureEvent:
		applyDeparture(w, log, e)
	case events.FixedLoadUpdate:
		applyFixedLoad(w, log, e)
	case events.LocalGenerationUpdate:
		applyLocalGeneration(w, log, e)
	case events.GridOperatorSignal:
		applyGridOperatorSignal(w, log, e)
	case events.ScheduleUpdate:
		applyScheduleUpdate(w, log, e)
	default:
		log.Warnf("scenario: unhandled event type %T", ev)
	}
	return nil
}

func applyArrival(w *World, log logger.Logger, e events.ArrivalEvent) error {
	v, ok := w.Vehicles[e.VehicleID]
	if !ok {
		log.Warnf("scenario: arrival for unknown vehicle %q", e.VehicleID)
		return nil
	}
	station, ok := w.Stations[e.Station]
	if !ok {
		log.Warnf("scenario: arrival of %q at unknown station %q", e.VehicleID, e.Station)
		return nil
	}
	newSoC, negative := v.ApplySoCDelta(e.SoCDelta)
	if negative {
		switch w.NegSoCPolicy {
		case NegativeSoCContinue:
			v.Battery.AllowNegativeSoC = true
		case NegativeSoCReset:
			newSoC = 0
		default:
			return newStepError(w.Clock.Step, e.VehicleID, model.ErrNegativeSoC)
		}
	}
	v.Battery.SoC = newSoC
	v.ConnectedStation = station.ID
	v.EstimatedDeparture = e.EstimatedDeparture
	v.DesiredSoC = e.DesiredSoC
	station.CurrentVehicle = v.ID
	return nil
}

func applyDeparture(w *World, log logger.Logger, e events.DepartureEvent) {
	v, ok := w.Vehicles[e.VehicleID]
	if !ok {
		log.Warnf("scenario: departure for unknown vehicle %q", e.VehicleID)
		return
	}
	if v.ConnectedStation != "" {
		if s, ok := w.Stations[v.ConnectedStation]; ok {
			s.CurrentVehicle = ""
			s.CurrentPower = 0
		}
	}
	v.ConnectedStation = ""
	v.EstimatedArrival = e.EstimatedArrival
	v.Schedule = nil
}

func applyFixedLoad(w *World, log logger.Logger, e events.FixedLoadUpdate) {
	gc, ok := w.GCs[e.GridConnector]
	if !ok {
		log.Warnf("scenario: fixed load update for unknown grid connector %q", e.GridConnector)
		return
	}
	gc.SetLoad("fixed:"+e.Name, e.PowerKW)
}

func applyLocalGeneration(w *World, log logger.Logger, e events.LocalGenerationUpdate) {
	gc, ok := w.GCs[e.GridConnector]
	if !ok {
		log.Warnf("scenario: local generation update for unknown grid connector %q", e.GridConnector)
		return
	}
	gc.SetLoad("gen:"+e.Name, -e.PowerKW)
}

func applyGridOperatorSignal(w *World, log logger.Logger, e events.GridOperatorSignal) {
	gc, ok := w.GCs[e.GridConnector]
	if !ok {
		log.Warnf("scenario: grid operator signal for unknown grid connector %q", e.GridConnector)
		return
	}
	if e.MaxPower != nil {
		gc.SetMaxPower(*e.MaxPower)
	}
	if e.Cost != nil {
		gc.SetCost(model.Cost{Type: model.CostType(e.Cost.Type), Value: e.Cost.Value})
	}
	if e.ChargingWindow != nil {
		gc.SetWindow(*e.ChargingWindow)
	}
	if e.Schedule != nil {
		gc.SetSchedule(*e.Schedule)
	}
}

func applyScheduleUpdate(w *World, log logger.Logger, e events.ScheduleUpdate) {
	if e.VehicleID != "" {
		v, ok := w.Vehicles[e.VehicleID]
		if !ok {
			log.Warnf("scenario: schedule update for unknown vehicle %q", e.VehicleID)
			return
		}
		target := e.TargetKW
		v.Schedule = &target
		return
	}
	gc, ok := w.GCs[e.GridConnector]
	if !ok {
		log.Warnf("scenario: schedule update for unknown grid connector %q", e.GridConnector)
		return
	}
	gc.SetSchedule(e.TargetKW)
}
