package strategy

import (
	"strings"
	"time"

	"github.com/kilianp07/spicev2g/core/logger"
	"github.com/kilianp07/spicev2g/core/model"
	"github.com/kilianp07/spicev2g/core/scenario"
)

// PeakLoadWindow draws no power inside a GC's declared peak window beyond
// an automatically determined ceiling (the fixed load observed inside the
// window), charges Balanced outside it, and preferentially discharges
// stationary batteries inside the window (§4.7 Peak-load-window). The
// window mask is carried on GridConnector.ChargingWindow, the same field
// Flex-window reads with the opposite sense — see DESIGN.md.
type PeakLoadWindow struct {
	Base
}

// NewPeakLoadWindow returns a PeakLoadWindow strategy.
func NewPeakLoadWindow(log logger.Logger) *PeakLoadWindow {
	return &PeakLoadWindow{Base: Base{Logger: log}}
}

func (s *PeakLoadWindow) Step(w *scenario.World, dt time.Duration) error {
	for _, gcID := range w.SortedGCIDs() {
		gc := w.GCs[gcID]
		if gc.ChargingWindow == nil || !*gc.ChargingWindow {
			balancedAllocate(s.Base, w, gc)
			continue
		}

		ceiling := sumPrefixedLoad(gc, "fixed:")
		if ceiling < 0 {
			ceiling = 0
		}

		for _, b := range w.BatteriesAt(gcID) {
			discharge := b.Battery.Curve.PowerAt(b.Battery.SoC)
			if discharge <= 0 || b.Battery.SoC <= 0 {
				continue
			}
			b.CurrentPower = -discharge
			gc.SetLoad("battery:"+b.ID, -discharge)
		}

		vehicles := OrderVehicles(w, gcID, OrderEarliestLeaveFirst)
		for _, v := range vehicles {
			vt := w.VehicleTypes[v.Type]
			standing := standingHours(w, v)
			requested := requestedConstantPower(v, vt, standing)
			station := stationOf(w, v)
			p := s.ClampPower(requested, station, gc, v, vt)
			station.CurrentPower = p
			gc.SetLoad("station:"+station.ID, p)
		}

		if over := gc.CurrentLoad() - ceiling; over > model.IterationEPS {
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
		if gc.OverLimit(model.IterationEPS) {
			reduceReversePriority(w, gc, vehicles)
		}
	}
	return nil
}

func sumPrefixedLoad(gc *model.GridConnector, prefix string) float64 {
	var sum float64
	for name, v := range gc.CurrentLoads {
		if strings.HasPrefix(name, prefix) {
			sum += v
		}
	}
	return sum
}
