package strategy

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kilianp07/spicev2g/core/events"
	"github.com/kilianp07/spicev2g/core/logger"
	"github.com/kilianp07/spicev2g/core/model"
	"github.com/kilianp07/spicev2g/core/scenario"
)

// DefaultHorizonHours is Balanced-market's default look-ahead (§4.7).
const DefaultHorizonHours = 24.0

// BalancedMarketOptions configures BalancedMarket's price horizon.
type BalancedMarketOptions struct {
	HorizonHours float64 `json:"horizon_hours"`
}

// BalancedMarket discretizes each vehicle's standing time into dt slices,
// sorts them by price ascending over a look-ahead horizon, and charges only
// during the cheapest prefix whose curve-bounded energy covers the energy
// still needed to reach desired_soc. Charging windows and schedules are
// ignored here (§4.7 Balanced-market). A vehicle with no known departure,
// or one already due, falls back to Balanced (§7 missing-schedule
// fallback).
type BalancedMarket struct {
	Base
	Horizon time.Duration
}

// NewBalancedMarket returns a BalancedMarket with opts' horizon, or the
// default if unset.
func NewBalancedMarket(log logger.Logger, opts BalancedMarketOptions) *BalancedMarket {
	h := opts.HorizonHours
	if h <= 0 {
		h = DefaultHorizonHours
	}
	return &BalancedMarket{Base: Base{Logger: log}, Horizon: time.Duration(h * float64(time.Hour))}
}

func (s *BalancedMarket) Step(w *scenario.World, dt time.Duration) error {
	for _, gcID := range w.SortedGCIDs() {
		gc := w.GCs[gcID]
		vehicles := OrderVehicles(w, gcID, OrderEarliestLeaveFirst)
		for _, v := range vehicles {
			vt := w.VehicleTypes[v.Type]
			station := stationOf(w, v)
			if v.EstimatedDeparture.IsZero() || !v.EstimatedDeparture.After(w.Now()) {
				standing := standingHours(w, v)
				p := s.ClampPower(requestedConstantPower(v, vt, standing), station, gc, v, vt)
				station.CurrentPower = p
				gc.SetLoad("station:"+station.ID, p)
				continue
			}
			p := s.marketPower(w, gc, v, vt, dt)
			p = s.ClampPower(p, station, gc, v, vt)
			station.CurrentPower = p
			gc.SetLoad("station:"+station.ID, p)
			applyV2G(s.Base, w, gc, v, vt, station, standingHours(w, v))
		}
		if gc.OverLimit(model.IterationEPS) {
			reduceReversePriority(w, gc, vehicles)
		}
	}
	return nil
}

// marketPower solves, for the vehicle's remaining standing time, the linear
// program that minimizes total energy cost subject to covering its
// remaining energy need within each slice's curve-bounded capacity, then
// returns the power this allocation assigns to the current interval (§4.7
// Balanced-market: "choose the smallest prefix of cheap intervals...",
// expressed here as an LP rather than a hand-rolled prefix scan since the
// two coincide exactly for a single fractional-knapsack-shaped constraint).
func (s *BalancedMarket) marketPower(w *scenario.World, gc *model.GridConnector, v *model.Vehicle, vt model.VehicleType, dt time.Duration) float64 {
	if v.Battery.SoC >= v.DesiredSoC {
		return 0
	}
	end := v.EstimatedDeparture
	if horizonEnd := w.Now().Add(s.Horizon); end.After(horizonEnd) {
		end = horizonEnd
	}
	if !end.After(w.Now()) {
		return 0
	}
	slices := priceSlices(w, gc, w.Now(), end, dt)
	if len(slices) == 0 {
		return 0
	}

	eta := vt.Efficiency()
	energyNeeded := (v.DesiredSoC - v.Battery.SoC) * v.Battery.Capacity / eta
	if energyNeeded <= 0 {
		return 0
	}
	peak := vt.CurvePeak()
	energyPerSlice := peak * dt.Hours()
	if energyPerSlice <= 0 {
		return 0
	}
	if cap := energyPerSlice * float64(len(slices)); energyNeeded > cap {
		energyNeeded = cap // LP would be infeasible past the horizon's total capacity
	}

	alloc, ok := cheapestSliceAllocation(slices, energyPerSlice, energyNeeded)
	if !ok {
		return cheapestPrefixFallback(slices, energyPerSlice, energyNeeded, peak, w.Now())
	}
	for i, sl := range slices {
		if sl.start.Equal(w.Now()) {
			return alloc[i] / dt.Hours()
		}
	}
	return 0
}

// cheapestSliceAllocation solves: minimize sum(price_i * x_i) subject to
// 0 <= x_i <= perSliceCap and sum(x_i) >= energyNeeded, via gonum's simplex
// solver. This is the LP form of "cheapest intervals first" — the prefix a
// hand-rolled greedy scan would pick is exactly this LP's vertex solution,
// but expressing it as an LP lets a future revision add cross-slice
// constraints (e.g. a shared GC budget) without restructuring the selection
// logic.
func cheapestSliceAllocation(slices []priceSlice, perSliceCap, energyNeeded float64) ([]float64, bool) {
	n := len(slices)
	c := make([]float64, n)
	for i, sl := range slices {
		c[i] = sl.price
	}

	// G x <= h: n upper-bound rows (x_i <= perSliceCap), n lower-bound rows
	// (-x_i <= 0), plus one row enforcing the energy floor as
	// -sum(x_i) <= -energyNeeded.
	g := mat.NewDense(2*n+1, n, nil)
	h := make([]float64, 2*n+1)
	for i := 0; i < n; i++ {
		g.Set(i, i, 1)
		h[i] = perSliceCap
		g.Set(n+i, i, -1)
	}
	for j := 0; j < n; j++ {
		g.Set(2*n, j, -1)
	}
	h[2*n] = -energyNeeded

	cStd, aStd, bStd := lp.Convert(c, g, h, nil, nil)
	_, sol, err := lp.Simplex(cStd, aStd, bStd, 1e-7, nil)
	if err != nil || len(sol) < n {
		return nil, false
	}
	return sol[:n], true
}

// cheapestPrefixFallback reproduces the documented fallback for a
// non-convergent or infeasible LP (§7 missing-schedule fallback family):
// sort slices by price ascending and fill the cheapest ones first.
func cheapestPrefixFallback(slices []priceSlice, energyPerSlice, energyNeeded, peak float64, now time.Time) float64 {
	ordered := append([]priceSlice(nil), slices...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].price < ordered[j].price })

	var cumulative float64
	nowSelected := false
	for _, sl := range ordered {
		if cumulative >= energyNeeded {
			break
		}
		if sl.start.Equal(now) {
			nowSelected = true
		}
		cumulative += energyPerSlice
	}
	if !nowSelected {
		return 0
	}
	return peak
}

type priceSlice struct {
	start time.Time
	price float64
}

// priceSlices discretizes [from,to) into dt-wide slices and evaluates the
// price in effect at each, applying any GridOperatorSignal cost changes
// already visible for gc within the window.
func priceSlices(w *scenario.World, gc *model.GridConnector, from, to time.Time, dt time.Duration) []priceSlice {
	type change struct {
		at   time.Time
		cost model.Cost
	}
	var changes []change
	for _, ev := range w.Events.UpcomingVisible(w.Now(), to.Sub(w.Now())) {
		sig, ok := ev.(events.GridOperatorSignal)
		if !ok || sig.GridConnector != gc.ID || sig.Cost == nil {
			continue
		}
		changes = append(changes, change{at: sig.StartTime(), cost: model.Cost{Type: model.CostType(sig.Cost.Type), Value: sig.Cost.Value}})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].at.Before(changes[j].at) })

	current := gc.Cost
	var out []priceSlice
	ci := 0
	for t := from; t.Before(to); t = t.Add(dt) {
		for ci < len(changes) && !changes[ci].at.After(t) {
			current = changes[ci].cost
			ci++
		}
		out = append(out, priceSlice{start: t, price: current.At(gc.CurrentLoad())})
	}
	return out
}
