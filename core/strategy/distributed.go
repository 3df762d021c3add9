package strategy

import (
	"math"
	"strings"
	"time"

	"github.com/kilianp07/spicev2g/core/logger"
	"github.com/kilianp07/spicev2g/core/model"
	"github.com/kilianp07/spicev2g/core/scenario"
)

// OppStationSuffix tags a station as an opportunity-charging slot (charged
// Greedy); anything else at a GC with Distributed active is a depot station
// (charged Balanced) (§4.7 Distributed).
const OppStationSuffix = "_opp"

// DefaultCHorizon is Distributed's reserved look-ahead for depot
// contention, ≈ one interval.
const DefaultCHorizon = 3 * time.Minute

// Distributed spans multiple GCs, tagging each GC's stations depot or opp
// by id suffix: opp stations charge Greedy, depot stations charge Balanced.
// When a depot GC is over its max_power, §4.7 calls for enqueuing depot
// vehicles by ascending SoC and, within a reserved look-ahead (C-HORIZON),
// admitting only the lowest-SoC vehicles to a slot until they reach
// desired_soc or depart. admitted tracks, per GC, which vehicle ids hold a
// slot for the current window, and windowStart when that window was opened;
// a vehicle leaving the admitted set (reached desired_soc or disconnected)
// immediately frees its slot for the next-lowest-SoC contender rather than
// waiting out the rest of C-HORIZON.
type Distributed struct {
	Base
	CHorizon time.Duration

	windowStart map[string]time.Time
	admitted    map[string]map[string]bool
}

// NewDistributed returns a Distributed strategy with the default C-HORIZON.
func NewDistributed(log logger.Logger) *Distributed {
	return &Distributed{
		Base:        Base{Logger: log},
		CHorizon:    DefaultCHorizon,
		windowStart: make(map[string]time.Time),
		admitted:    make(map[string]map[string]bool),
	}
}

func (s *Distributed) Step(w *scenario.World, dt time.Duration) error {
	for _, gcID := range w.SortedGCIDs() {
		gc := w.GCs[gcID]
		for _, station := range w.StationsAt(gcID) {
			if station.Free() {
				continue
			}
			v := w.Vehicles[station.CurrentVehicle]
			vt := w.VehicleTypes[v.Type]
			var requested float64
			if isOppStation(station.ID) {
				requested = v.Battery.Curve.PowerAt(v.Battery.SoC)
				if v.Battery.SoC >= v.DesiredSoC {
					requested = 0
				}
			} else {
				requested = requestedConstantPower(v, vt, standingHours(w, v))
			}
			p := s.ClampPower(requested, station, gc, v, vt)
			station.CurrentPower = p
			gc.SetLoad("station:"+station.ID, p)
		}
		if gc.OverLimit(model.IterationEPS) {
			s.reduceDepotLowestFirst(w, gc)
		}
	}
	return nil
}

// reduceDepotLowestFirst enforces the C-HORIZON queue discipline for a
// depot GC that is over its max_power: only the admitted, lowest-SoC
// vehicles keep their allocation this step; every other depot vehicle is
// cut to zero, not merely throttled, matching "only the lowest-SoC vehicles
// receive a slot" (§4.7 Distributed).
func (s *Distributed) reduceDepotLowestFirst(w *scenario.World, gc *model.GridConnector) {
	var depot []*model.Vehicle
	for _, station := range w.StationsAt(gc.ID) {
		if station.Free() || isOppStation(station.ID) {
			continue
		}
		depot = append(depot, w.Vehicles[station.CurrentVehicle])
	}
	if len(depot) == 0 {
		return
	}
	sortBySoCAscending(depot)

	now := w.Now()
	admitted := s.admitOrRefreshWindow(gc.ID, depot, now)

	budget := gc.MaxPower
	for _, load := range gc.CurrentLoads {
		if load < 0 {
			budget -= load // leave feed-in/local-generation headroom untouched
		}
	}
	var spent float64
	for _, v := range depot {
		station := stationOf(w, v)
		if !admitted[v.ID] {
			station.CurrentPower = 0
			gc.SetLoad("station:"+station.ID, 0)
			continue
		}
		if spent+station.CurrentPower > budget {
			station.CurrentPower = math.Max(0, budget-spent)
			gc.SetLoad("station:"+station.ID, station.CurrentPower)
		}
		spent += station.CurrentPower
	}
}

// admitOrRefreshWindow returns the set of depot vehicle ids holding a
// C-HORIZON slot at gcID. A window is (re)computed, in ascending-SoC order,
// when none exists, when CHorizon has elapsed, or when a previously
// admitted vehicle has reached desired_soc or disconnected — freeing its
// slot immediately rather than waiting out the rest of the window.
func (s *Distributed) admitOrRefreshWindow(gcID string, depotAscending []*model.Vehicle, now time.Time) map[string]bool {
	admitted := s.admitted[gcID]
	start, ok := s.windowStart[gcID]
	stale := !ok || now.Sub(start) >= s.CHorizon
	if admitted != nil && !stale {
		for _, v := range depotAscending {
			if admitted[v.ID] && v.Battery.SoC >= v.DesiredSoC {
				stale = true
				break
			}
		}
	}
	if admitted == nil || stale {
		admitted = make(map[string]bool, len(depotAscending))
		slots := len(depotAscending)
		for i, v := range depotAscending {
			if i >= slots {
				break
			}
			if v.Battery.SoC >= v.DesiredSoC {
				continue // already satisfied, yields its slot to the next vehicle
			}
			admitted[v.ID] = true
		}
		s.admitted[gcID] = admitted
		s.windowStart[gcID] = now
	}
	return admitted
}

func isOppStation(stationID string) bool {
	return strings.HasSuffix(stationID, OppStationSuffix)
}

func sortBySoCAscending(vs []*model.Vehicle) {
	for i := 1; i < len(vs); i++ {
		for j := i; j > 0 && vs[j].Battery.SoC < vs[j-1].Battery.SoC; j-- {
			vs[j], vs[j-1] = vs[j-1], vs[j]
		}
	}
}
