package strategy

import (
	"time"

	"github.com/kilianp07/spicev2g/core/events"
	"github.com/kilianp07/spicev2g/core/model"
	"github.com/kilianp07/spicev2g/core/scenario"
)

// V2GPriceMargin is the minimum price drop (same units as Cost.At) a future
// visible signal must promise before a V2G-capable vehicle discharges now
// (§4.7 V2G path).
const V2GPriceMargin = 0.0

// applyV2G is the shared V2G path used by Balanced, Balanced-market,
// Schedule and Flex-window: when a vehicle's type allows it, discharge now
// if a cheaper interval is already visible within the vehicle's remaining
// standing time, bounded by discharge_limit and scaled by v2g_power_factor,
// and only while the vehicle still has standing time left. It never
// overrides a charging decision already made this step (station.CurrentPower
// must still be zero).
func applyV2G(b Base, w *scenario.World, gc *model.GridConnector, v *model.Vehicle, vt model.VehicleType, station *model.ChargingStation, standingHours float64) {
	if !vt.V2G || station.CurrentPower != 0 || standingHours <= 0 {
		return
	}
	if v.Battery.SoC <= vt.DischargeLimit {
		return
	}
	currentPrice := gc.Cost.At(gc.CurrentLoad())
	horizon := time.Duration(standingHours * float64(time.Hour))
	cheaperAhead := false
	for _, ev := range w.Events.UpcomingVisible(w.Now(), horizon) {
		sig, ok := ev.(events.GridOperatorSignal)
		if !ok || sig.GridConnector != gc.ID || sig.Cost == nil {
			continue
		}
		future := model.Cost{Type: model.CostType(sig.Cost.Type), Value: sig.Cost.Value}.At(gc.CurrentLoad())
		if future < currentPrice-V2GPriceMargin {
			cheaperAhead = true
			break
		}
	}
	if !cheaperAhead {
		return
	}
	ceiling := vt.CurvePeak() * vt.V2GPowerFactor
	if station.MaxPower > 0 && ceiling > station.MaxPower {
		ceiling = station.MaxPower
	}
	if ceiling <= 0 {
		return
	}
	station.CurrentPower = -ceiling
	gc.SetLoad("station:"+station.ID, -ceiling)
}
