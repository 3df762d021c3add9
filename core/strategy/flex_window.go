package strategy

import (
	"time"

	"github.com/kilianp07/spicev2g/core/logger"
	"github.com/kilianp07/spicev2g/core/model"
	"github.com/kilianp07/spicev2g/core/scenario"
)

// FlexWindowSubMode selects how Flex-window allocates inside a declared
// charging window.
type FlexWindowSubMode int

const (
	FlexWindowGreedy FlexWindowSubMode = iota
	FlexWindowNeedy
	FlexWindowBalanced
)

// FlexWindowOptions selects Flex-window's in-window sub-mode: "greedy",
// "needy", or "balanced" (default).
type FlexWindowOptions struct {
	SubMode string `json:"sub_mode"`
}

// FlexWindow applies the selected sub-strategy inside a GC's declared
// charging window (GridConnector.ChargingWindow) and, outside it, charges
// only what is strictly necessary to meet departures — Balanced's minimal
// constant power already keeps outside-window draw as flat as the horizon
// allows (§4.7 Flex-window).
type FlexWindow struct {
	Base
	SubMode FlexWindowSubMode
}

// NewFlexWindow returns a FlexWindow strategy in the sub-mode opts selects.
func NewFlexWindow(log logger.Logger, opts FlexWindowOptions) *FlexWindow {
	mode := FlexWindowBalanced
	switch opts.SubMode {
	case "greedy":
		mode = FlexWindowGreedy
	case "needy":
		mode = FlexWindowNeedy
	}
	return &FlexWindow{Base: Base{Logger: log}, SubMode: mode}
}

func (s *FlexWindow) Step(w *scenario.World, dt time.Duration) error {
	for _, gcID := range w.SortedGCIDs() {
		gc := w.GCs[gcID]
		inWindow := gc.ChargingWindow != nil && *gc.ChargingWindow
		if !inWindow {
			balancedAllocate(s.Base, w, gc)
			continue
		}
		switch s.SubMode {
		case FlexWindowGreedy:
			greedyAllocate(s.Base, w, gc, dt)
		case FlexWindowNeedy:
			s.needyAllocate(w, gc)
		default:
			balancedAllocate(s.Base, w, gc)
		}
	}
	return nil
}

// needyAllocate charges each vehicle at its curve ceiling in order of
// greatest missing SoC first, subject to station/GC/curve limits.
func (s *FlexWindow) needyAllocate(w *scenario.World, gc *model.GridConnector) {
	vehicles := OrderVehicles(w, gc.ID, OrderNeedy)
	for _, v := range vehicles {
		vt := w.VehicleTypes[v.Type]
		station := stationOf(w, v)
		requested := v.Battery.Curve.PowerAt(v.Battery.SoC)
		if v.Battery.SoC >= v.DesiredSoC {
			requested = 0
		}
		p := s.ClampPower(requested, station, gc, v, vt)
		station.CurrentPower = p
		gc.SetLoad("station:"+station.ID, p)
	}
	if gc.OverLimit(model.IterationEPS) {
		reduceReversePriority(w, gc, vehicles)
	}
}
