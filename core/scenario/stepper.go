package scenario

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kilianp07/spicev2g/core/logger"
	"github.com/kilianp07/spicev2g/core/model"
	"github.com/kilianp07/spicev2g/core/report"
)

// errZeroInterval guards against a misconfigured Clock; Stepper refuses to
// run rather than divide-by-zero deep inside LoadingCurve integration.
var errZeroInterval = errors.New("scenario: clock interval must be positive")

// Stepper drives one World through its events and active strategy, one
// interval at a time, producing a report.Row per call to Step. This is the
// six-step per-interval procedure: advance the clock, apply due events,
// call the strategy, integrate the resulting powers into battery state,
// recompute grid-connector loads, and hand back the row.
type Stepper struct {
	World    *World
	Strategy Strategy
	Logger   logger.Logger

	// OverloadEPS tolerates floating-point slop when asserting a grid
	// connector's recomputed load against its max_power.
	OverloadEPS float64
}

// NewStepper returns a Stepper with the documented overload tolerance.
func NewStepper(w *World, strat Strategy, log logger.Logger) *Stepper {
	return &Stepper{World: w, Strategy: strat, Logger: log, OverloadEPS: 1e-5}
}

// Step advances the world by one interval and returns the row recorded for
// it. A per-component fatal condition (negative SoC on abort policy,
// over-limit grid connector, a strategy error) never aborts the run: it is
// logged and recorded in the row's Errors map, and the stepper proceeds to
// the next interval. Step only returns a non-nil error when the stepper
// itself cannot run at all (a misconfigured clock).
func (st *Stepper) Step() (report.Row, error) {
	w := st.World
	if w.Clock.Interval <= 0 {
		return report.Row{}, errZeroInterval
	}

	w.Clock.Advance()
	now := w.Now()
	row := report.NewRow(w.Clock.Step, now)
	row.Interval = w.Clock.Interval

	for _, ev := range w.Events.ActiveAt(now) {
		if err := applyEvent(w, st.Logger, ev); err != nil {
			row.Errors[componentOf(err)] = err.Error()
			st.Logger.Warnf("scenario: step %d: %v", w.Clock.Step, err)
		}
		w.Events.Consume(ev)
	}

	resetRequestedPowers(w)

	dt := w.Clock.Interval
	if st.Strategy != nil {
		if err := st.Strategy.Step(w, dt); err != nil {
			row.Errors["strategy"] = err.Error()
			st.Logger.Warnf("scenario: step %d: strategy failed: %v", w.Clock.Step, err)
		}
	}

	st.integrateVehicles(w, dt, &row)
	st.integrateBatteries(w, dt, &row)
	st.finalizeGCs(w, &row)

	return row, nil
}

// resetRequestedPowers zeroes every station's and stationary battery's
// CurrentPower before the strategy runs, so a strategy only ever sees and
// sets its own interval's request rather than accumulating onto the last
// interval's settled value.
func resetRequestedPowers(w *World) {
	for _, s := range w.Stations {
		s.CurrentPower = 0
	}
	for _, b := range w.Batteries {
		b.CurrentPower = 0
	}
}

func componentOf(err error) string {
	var se *StepError
	if errors.As(err, &se) {
		return se.Component
	}
	return "unknown"
}

// integrateVehicles settles each connected vehicle's battery at the power
// the strategy requested on its station, clamping discharge to non-V2G
// vehicles refusing it.
func (st *Stepper) integrateVehicles(w *World, dt time.Duration, row *report.Row) {
	for _, stationID := range w.SortedStationIDs() {
		station := w.Stations[stationID]
		if station.Free() {
			continue
		}
		v, ok := w.Vehicles[station.CurrentVehicle]
		if !ok {
			continue
		}
		requested := station.CurrentPower
		switch {
		case requested > 0:
			actual, _ := v.Battery.Load(requested, dt)
			station.CurrentPower = actual
		case requested < 0:
			vt := w.VehicleTypes[v.Type]
			if !vt.V2G {
				st.Logger.Warnf("scenario: step %d: station %s requested discharge on non-V2G vehicle %s", w.Clock.Step, stationID, v.ID)
				station.CurrentPower = 0
				break
			}
			actual, _ := v.Battery.Unload(-requested, dt, vt.DischargeLimit)
			station.CurrentPower = -actual
		default:
			station.CurrentPower = 0
		}
		row.VehicleSoC[v.ID] = v.Battery.SoC
		row.Stations[stationID] = station.CurrentPower
		if gc, ok := w.GCs[station.ParentGridConnector]; ok {
			gc.SetLoad("station:"+stationID, station.CurrentPower)
		}
	}
}

// integrateBatteries settles each stationary battery at its requested power,
// symmetric to integrateVehicles but without a V2G opt-in check.
func (st *Stepper) integrateBatteries(w *World, dt time.Duration, row *report.Row) {
	for _, id := range w.SortedBatteryIDs() {
		b := w.Batteries[id]
		requested := b.CurrentPower
		switch {
		case requested > 0:
			actual, _ := b.Battery.Load(requested, dt)
			b.CurrentPower = actual
		case requested < 0:
			actual, _ := b.Battery.Unload(-requested, dt, 0)
			b.CurrentPower = -actual
		default:
			b.CurrentPower = 0
		}
		if gc, ok := w.GCs[b.ParentGridConnector]; ok {
			gc.SetLoad("battery:"+id, b.CurrentPower)
		}
	}
}

// finalizeGCs recomputes each grid connector's load breakdown, checks the
// max_power invariant, and fills the row's per-GC slice.
func (st *Stepper) finalizeGCs(w *World, row *report.Row) {
	eps := st.OverloadEPS
	if eps <= 0 {
		eps = 1e-5
	}
	for _, id := range w.SortedGCIDs() {
		gc := w.GCs[id]
		load := gc.CurrentLoad()
		gr := report.GCRow{
			Load:       load,
			FixedLoad:  sumPrefixed(gc.CurrentLoads, "fixed:"),
			FeedIn:     -sumPrefixed(gc.CurrentLoads, "gen:"),
			StationSum: sumPrefixed(gc.CurrentLoads, "station:") + sumPrefixed(gc.CurrentLoads, "battery:"),
			Price:      gc.Cost.At(load),
		}
		if gc.Schedule != nil {
			gr.Schedule = *gc.Schedule
		}
		if gr.FeedIn > gr.FixedLoad+gr.StationSum {
			gr.Surplus = gr.FeedIn - gr.FixedLoad - gr.StationSum
		}
		row.GridConnectors[id] = gr

		if gc.OverLimit(eps) {
			err := fmt.Errorf("%w: load=%.6f max_power=%.6f", model.ErrUnsatisfiableGC, load, gc.MaxPower)
			row.Errors[id] = newStepError(w.Clock.Step, id, err).Error()
			st.Logger.Warnf("scenario: step %d: %v", w.Clock.Step, err)
		}
	}
}

func sumPrefixed(loads map[string]float64, prefix string) float64 {
	var sum float64
	for name, v := range loads {
		if strings.HasPrefix(name, prefix) {
			sum += v
		}
	}
	return sum
}
