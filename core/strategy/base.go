// Package strategy implements the charging-power allocation policies
// (greedy, balanced, balanced-market, schedule, peak-load-window,
// flex-window, distributed) that core/scenario.Stepper calls once per
// interval. Base carries the primitives every strategy shares.
package strategy

import (
	"sort"
	"time"

	"github.com/kilianp07/spicev2g/core/logger"
	"github.com/kilianp07/spicev2g/core/model"
	"github.com/kilianp07/spicev2g/core/scenario"
)

// PriceThreshold is the ct/kWh (or EUR/kWh) ceiling below which Greedy is
// permitted to charge past desired_soc opportunistically.
const PriceThreshold = 0.0

// OrderMode selects a deterministic vehicle ordering for a GC's stations.
type OrderMode int

const (
	// OrderEarliestLeaveFirst sorts by EstimatedDeparture ascending.
	OrderEarliestLeaveFirst OrderMode = iota
	// OrderNeedy sorts by (DesiredSoC - SoC) descending.
	OrderNeedy
	// OrderLowestFirst sorts by SoC ascending.
	OrderLowestFirst
)

// Base is embedded by every concrete strategy and carries the shared
// allocation primitives (§4.6). It holds no per-run state of its own beyond
// a logger, so strategies can be constructed cheaply and reused across
// scenarios.
type Base struct {
	Logger logger.Logger
}

// ClampPower reduces requested to the minimum of the station's own ceiling,
// the GC's headroom (excluding the station's own already-committed load),
// and the vehicle's curve ceiling at its current SoC, then zeroes it out
// below the refuse-charge threshold (station.MinPower or
// type.MinChargingThreshold, whichever is larger).
func (Base) ClampPower(requested float64, station *model.ChargingStation, gc *model.GridConnector, v *model.Vehicle, vt model.VehicleType) float64 {
	if requested <= 0 {
		return 0
	}
	p := requested
	if station.MaxPower > 0 && p > station.MaxPower {
		p = station.MaxPower
	}
	if headroom := gc.Headroom("station:" + station.ID); p > headroom {
		p = headroom
	}
	curveCeiling := v.Battery.Curve.PowerAt(v.Battery.SoC)
	if p > curveCeiling {
		p = curveCeiling
	}
	threshold := vt.MinChargingThreshold()
	if station.MinPower > threshold {
		threshold = station.MinPower
	}
	if p < threshold {
		return 0
	}
	if p < 0 {
		return 0
	}
	return p
}

// DistributeSurplus routes local-generation surplus (negative load not yet
// absorbed by fixed loads or vehicle charging) first into stationary
// batteries, then into V2G-capable connected vehicles up to desired_soc.
func (Base) DistributeSurplus(w *scenario.World, gc *model.GridConnector, surplus float64, dt time.Duration) {
	if surplus <= 0 {
		return
	}
	remaining := surplus
	for _, b := range w.BatteriesAt(gc.ID) {
		if remaining <= 0 {
			break
		}
		room := (1 - b.Battery.SoC) * b.Battery.Capacity
		if b.Battery.Capacity == model.InfiniteCapacity {
			room = remaining
		}
		take := remaining
		if room >= 0 && take > room {
			take = room
		}
		if take <= 0 {
			continue
		}
		b.CurrentPower += take
		remaining -= take
	}
	if remaining <= 0 {
		return
	}
	for _, stationID := range w.SortedStationIDs() {
		if remaining <= 0 {
			break
		}
		station := w.Stations[stationID]
		if station.Free() || station.ParentGridConnector != gc.ID {
			continue
		}
		v := w.Vehicles[station.CurrentVehicle]
		vt := w.VehicleTypes[v.Type]
		if !vt.V2G {
			continue
		}
		if v.Battery.SoC >= v.DesiredSoC {
			continue
		}
		take := remaining
		ceiling := station.MaxPower
		if ceiling > 0 && take > ceiling {
			take = ceiling
		}
		station.CurrentPower += take
		remaining -= take
	}
}

// OrderVehicles returns the connected vehicles at gc in the requested
// deterministic order. Ties fall back to lexicographic vehicle id, so the
// ordering is fully deterministic across platforms.
func OrderVehicles(w *scenario.World, gcID string, mode OrderMode) []*model.Vehicle {
	var vs []*model.Vehicle
	for _, stationID := range w.SortedStationIDs() {
		station := w.Stations[stationID]
		if station.Free() || station.ParentGridConnector != gcID {
			continue
		}
		vs = append(vs, w.Vehicles[station.CurrentVehicle])
	}
	sort.SliceStable(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		switch mode {
		case OrderEarliestLeaveFirst:
			if !a.EstimatedDeparture.Equal(b.EstimatedDeparture) {
				return a.EstimatedDeparture.Before(b.EstimatedDeparture)
			}
		case OrderNeedy:
			na, nb := a.DesiredSoC-a.Battery.SoC, b.DesiredSoC-b.Battery.SoC
			if na != nb {
				return na > nb
			}
		case OrderLowestFirst:
			if a.Battery.SoC != b.Battery.SoC {
				return a.Battery.SoC < b.Battery.SoC
			}
		}
		return a.ID < b.ID
	})
	return vs
}

// belowDesiredFirst orders vehicles below desired_soc ahead of those at or
// above it, then by departure ascending within each group — Greedy's
// "below-desired first, then by departure" rule.
func belowDesiredFirst(w *scenario.World, gcID string) []*model.Vehicle {
	vs := OrderVehicles(w, gcID, OrderEarliestLeaveFirst)
	sort.SliceStable(vs, func(i, j int) bool {
		bi := vs[i].Battery.SoC < vs[i].DesiredSoC
		bj := vs[j].Battery.SoC < vs[j].DesiredSoC
		if bi != bj {
			return bi
		}
		return false
	})
	return vs
}

func stationOf(w *scenario.World, v *model.Vehicle) *model.ChargingStation {
	return w.Stations[v.ConnectedStation]
}
