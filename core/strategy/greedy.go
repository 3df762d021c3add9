package strategy

import (
	"time"

	"github.com/kilianp07/spicev2g/core/logger"
	"github.com/kilianp07/spicev2g/core/model"
	"github.com/kilianp07/spicev2g/core/scenario"
)

// Greedy serves each GC's vehicles below-desired-first, then by departure,
// assigning each the maximum power the station/GC/curve permits until it
// reaches desired_soc. It may exceed desired_soc only under a cheap price
// or local-generation surplus. Stationary batteries only charge from
// surplus (§4.7 Greedy).
type Greedy struct {
	Base
}

// NewGreedy returns a Greedy strategy logging through log.
func NewGreedy(log logger.Logger) *Greedy {
	return &Greedy{Base: Base{Logger: log}}
}

func (g *Greedy) Step(w *scenario.World, dt time.Duration) error {
	for _, gcID := range w.SortedGCIDs() {
		greedyAllocate(g.Base, w, w.GCs[gcID], dt)
	}
	return nil
}

// greedyAllocate runs the Greedy algorithm for a single GC. Exposed so
// Flex-window can reuse it for its in-window "greedy" sub-mode.
func greedyAllocate(b Base, w *scenario.World, gc *model.GridConnector, dt time.Duration) {
	baseline := gc.CurrentLoad()
	surplus := 0.0
	if baseline < 0 {
		surplus = -baseline
	}
	price := gc.Cost.At(baseline)
	allowOver := price <= PriceThreshold || surplus > 0

	for _, v := range belowDesiredFirst(w, gc.ID) {
		station := stationOf(w, v)
		vt := w.VehicleTypes[v.Type]
		requested := v.Battery.Curve.PowerAt(v.Battery.SoC)
		if !allowOver && v.Battery.SoC >= v.DesiredSoC {
			requested = 0
		}
		p := b.ClampPower(requested, station, gc, v, vt)
		station.CurrentPower = p
		gc.SetLoad("station:"+station.ID, p)
	}
	b.DistributeSurplus(w, gc, surplus, dt)
}
