package strategy

import (
	"time"

	"github.com/kilianp07/spicev2g/core/logger"
	"github.com/kilianp07/spicev2g/core/model"
	"github.com/kilianp07/spicev2g/core/scenario"
)

// Balanced computes, per vehicle with a known departure, the minimum
// constant power that reaches desired_soc by then via binary search over
// LoadingCurve.SoCAfter, then assigns it subject to GC headroom. Vehicles
// with no known departure behave like Greedy (§4.7 Balanced).
type Balanced struct {
	Base
}

// NewBalanced returns a Balanced strategy logging through log.
func NewBalanced(log logger.Logger) *Balanced {
	return &Balanced{Base: Base{Logger: log}}
}

func (s *Balanced) Step(w *scenario.World, dt time.Duration) error {
	for _, gcID := range w.SortedGCIDs() {
		balancedAllocate(s.Base, w, w.GCs[gcID])
	}
	return nil
}

// balancedAllocate runs the Balanced algorithm for a single GC. It is also
// Schedule's missing-schedule fallback (§7) and the outside-window
// allocation of Flex-window and Peak-load-window.
func balancedAllocate(b Base, w *scenario.World, gc *model.GridConnector) {
	vehicles := OrderVehicles(w, gc.ID, OrderEarliestLeaveFirst)
	for _, v := range vehicles {
		vt := w.VehicleTypes[v.Type]
		standing := standingHours(w, v)
		requested := requestedConstantPower(v, vt, standing)
		station := stationOf(w, v)
		p := b.ClampPower(requested, station, gc, v, vt)
		station.CurrentPower = p
		gc.SetLoad("station:"+station.ID, p)
		applyV2G(b, w, gc, v, vt, station, standing)
	}
	if gc.OverLimit(model.IterationEPS) {
		reduceReversePriority(w, gc, vehicles)
	}
}

// standingHours returns the hours remaining until EstimatedDeparture, or 0
// if no departure is known (signals "behave like Greedy" to callers).
func standingHours(w *scenario.World, v *model.Vehicle) float64 {
	if v.EstimatedDeparture.IsZero() {
		return 0
	}
	h := v.EstimatedDeparture.Sub(w.Now()).Hours()
	if h < 0 {
		return 0
	}
	return h
}

// requestedConstantPower binary-searches the minimum constant power that
// reaches v.DesiredSoC within standingHours, bounded by the vehicle type's
// curve peak. With no known standing time it returns the instantaneous
// curve ceiling, matching Greedy for that vehicle.
func requestedConstantPower(v *model.Vehicle, vt model.VehicleType, standingHours float64) float64 {
	if standingHours <= 0 {
		return v.Battery.Curve.PowerAt(v.Battery.SoC)
	}
	if v.Battery.SoC >= v.DesiredSoC {
		return 0
	}
	eta := v.Battery.Efficiency
	if eta <= 0 {
		eta = vt.Efficiency()
	}
	capacity := v.Battery.Capacity
	if capacity == model.InfiniteCapacity || capacity <= 0 {
		capacity = 1
	}
	peak := vt.CurvePeak()
	lo, hi := 0.0, peak
	reach := func(p float64) float64 {
		return v.Battery.Curve.SoCAfter(v.Battery.SoC, standingHours, eta, p, capacity)
	}
	if reach(hi) < v.DesiredSoC-model.IterationEPS {
		return hi
	}
	for i := 0; i < model.IterationLimit && hi-lo > model.IterationEPS; i++ {
		mid := (lo + hi) / 2
		if reach(mid) >= v.DesiredSoC {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi
}

// reduceReversePriority cuts back power from the latest-departing vehicles
// first when a GC remains over its max_power after sequential allocation.
func reduceReversePriority(w *scenario.World, gc *model.GridConnector, vehicles []*model.Vehicle) {
	over := gc.CurrentLoad() - gc.MaxPower
	for i := len(vehicles) - 1; i >= 0 && over > model.IterationEPS; i-- {
		station := stationOf(w, vehicles[i])
		cut := station.CurrentPower
		if cut > over {
			cut = over
		}
		if cut <= 0 {
			continue
		}
		station.CurrentPower -= cut
		gc.SetLoad("station:"+station.ID, station.CurrentPower)
		over -= cut
	}
}
