package strategy

import (
	"time"

	"github.com/kilianp07/spicev2g/core/logger"
	"github.com/kilianp07/spicev2g/core/model"
	"github.com/kilianp07/spicev2g/core/scenario"
)

// ScheduleMode selects Schedule's sub-strategy.
type ScheduleMode int

const (
	// ScheduleCollective distributes the GC's target over the whole fleet.
	ScheduleCollective ScheduleMode = iota
	// ScheduleIndividual shares the target proportionally to each
	// vehicle's missing energy to desired_soc.
	ScheduleIndividual
)

// ScheduleOptions selects Schedule's mode: "collective" (default) or
// "individual".
type ScheduleOptions struct {
	Mode string `json:"mode"`
}

// Schedule allocates to a GC's declared per-interval target kW (§4.7
// Schedule). With no target declared, it falls back to Balanced (§7
// missing-schedule fallback).
type Schedule struct {
	Base
	Mode ScheduleMode
}

// NewSchedule returns a Schedule strategy in the mode opts selects.
func NewSchedule(log logger.Logger, opts ScheduleOptions) *Schedule {
	mode := ScheduleCollective
	if opts.Mode == "individual" {
		mode = ScheduleIndividual
	}
	return &Schedule{Base: Base{Logger: log}, Mode: mode}
}

func (s *Schedule) Step(w *scenario.World, dt time.Duration) error {
	for _, gcID := range w.SortedGCIDs() {
		gc := w.GCs[gcID]
		if gc.Schedule == nil {
			balancedAllocate(s.Base, w, gc)
			continue
		}
		vehicles := OrderVehicles(w, gcID, OrderNeedy)
		target := *gc.Schedule
		if s.Mode == ScheduleIndividual {
			s.stepIndividual(w, gc, vehicles, target)
		} else {
			s.stepCollective(w, gc, vehicles, target)
		}
		if gc.OverLimit(model.IterationEPS) {
			reduceReversePriority(w, gc, vehicles)
		}
	}
	return nil
}

// stepIndividual shares target proportionally to each vehicle's missing
// energy to desired_soc.
func (s *Schedule) stepIndividual(w *scenario.World, gc *model.GridConnector, vehicles []*model.Vehicle, target float64) {
	missing := make(map[string]float64, len(vehicles))
	var total float64
	for _, v := range vehicles {
		m := (v.DesiredSoC - v.Battery.SoC) * v.Battery.Capacity
		if m < 0 {
			m = 0
		}
		missing[v.ID] = m
		total += m
	}
	for _, v := range vehicles {
		station := stationOf(w, v)
		if total <= 0 {
			station.CurrentPower = 0
			gc.SetLoad("station:"+station.ID, 0)
			continue
		}
		vt := w.VehicleTypes[v.Type]
		share := target * (missing[v.ID] / total)
		p := s.ClampPower(share, station, gc, v, vt)
		station.CurrentPower = p
		gc.SetLoad("station:"+station.ID, p)
	}
}

// stepCollective distributes target over the fleet: inside a declared core
// standing time window it uses a look-ahead to the window's end so every
// vehicle reaches desired_soc by then; outside, it balances to each
// vehicle's own next departure. Either way, allocation is capped so the
// running sum never exceeds target.
func (s *Schedule) stepCollective(w *scenario.World, gc *model.GridConnector, vehicles []*model.Vehicle, target float64) {
	remaining := target
	inWindow := w.CoreStandingTime != nil && w.IsCoreStandingTime(w.Now())
	windowEnd := endOfCoreStandingWindow(w, w.Now())
	for _, v := range vehicles {
		vt := w.VehicleTypes[v.Type]
		var hours float64
		if inWindow {
			hours = windowEnd.Sub(w.Now()).Hours()
		} else {
			hours = standingHours(w, v)
		}
		requested := requestedConstantPower(v, vt, hours)
		if requested > remaining {
			requested = remaining
		}
		station := stationOf(w, v)
		p := s.ClampPower(requested, station, gc, v, vt)
		station.CurrentPower = p
		gc.SetLoad("station:"+station.ID, p)
		remaining -= p
		if remaining < 0 {
			remaining = 0
		}
	}
}

// endOfCoreStandingWindow returns the end-of-day-window time.Time for the
// standing-time window containing t, or t itself if none matches.
func endOfCoreStandingWindow(w *scenario.World, t time.Time) time.Time {
	cst := w.CoreStandingTime
	if cst == nil {
		return t
	}
	cur := t.Hour()*60 + t.Minute()
	for _, win := range cst.Times {
		start := win.StartHour*60 + win.StartMinute
		end := win.EndHour*60 + win.EndMinute
		if cur >= start && cur < end {
			return time.Date(t.Year(), t.Month(), t.Day(), win.EndHour, win.EndMinute, 0, 0, t.Location())
		}
	}
	return t
}
