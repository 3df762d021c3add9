package scenario

import (
	"sort"
	"time"

	"github.com/kilianp07/spicev2g/core/events"
	"github.com/kilianp07/spicev2g/core/model"
)

// NegativeSoCPolicy selects how the stepper reacts to a vehicle arriving
// with SoC < 0 after soc_delta is applied (§7).
type NegativeSoCPolicy int

const (
	// NegativeSoCAbort is the default: the arrival is a fatal step error.
	NegativeSoCAbort NegativeSoCPolicy = iota
	// NegativeSoCContinue lets SoC go negative (AllowNegativeSoC).
	NegativeSoCContinue
	// NegativeSoCReset clamps SoC to zero on arrival.
	NegativeSoCReset
)

// WeekdayConvention resolves the ambiguity in core_standing_time.full_days
// (§9 Open Question). It must be set explicitly; there is no default.
type WeekdayConvention int

const (
	WeekdayConventionUnset WeekdayConvention = iota
	// WeekdayZeroBasedMonday treats Monday as weekday index 0.
	WeekdayZeroBasedMonday
	// WeekdayISO treats Monday as weekday index 1 (ISO 8601).
	WeekdayISO
)

// CoreStandingTime is a recurring window during which all vehicles are
// guaranteed to be present.
type CoreStandingTime struct {
	Times     []DailyWindow
	FullDays  []int // weekday indices, convention given by Convention
	Convention WeekdayConvention
}

// DailyWindow is a [start,end) time-of-day window expressed as (hour,minute).
type DailyWindow struct {
	StartHour, StartMinute int
	EndHour, EndMinute     int
}

// World is the mutable, string-keyed component graph the stepper and
// strategies operate on for the current interval. Cross-references between
// components are ids resolved through these maps, never owning pointers
// (§9 Component graph).
type World struct {
	Clock Clock

	VehicleTypes map[string]model.VehicleType
	Vehicles     map[string]*model.Vehicle
	Stations     map[string]*model.ChargingStation
	GCs          map[string]*model.GridConnector
	Batteries    map[string]*model.StationaryBattery
	PVs          map[string]*model.PV

	Events *events.Events

	NegSoCPolicy     NegativeSoCPolicy
	CoreStandingTime *CoreStandingTime
}

// NewWorld returns an empty World with initialized maps and an empty event
// collection.
func NewWorld(clock Clock) *World {
	return &World{
		Clock:        clock,
		VehicleTypes: make(map[string]model.VehicleType),
		Vehicles:     make(map[string]*model.Vehicle),
		Stations:     make(map[string]*model.ChargingStation),
		GCs:          make(map[string]*model.GridConnector),
		Batteries:    make(map[string]*model.StationaryBattery),
		PVs:          make(map[string]*model.PV),
		Events:       events.New(),
	}
}

// SortedVehicleIDs returns vehicle ids in lexicographic order, the fixed
// iteration order §5 requires for reproducible output.
func (w *World) SortedVehicleIDs() []string {
	ids := make([]string, 0, len(w.Vehicles))
	for id := range w.Vehicles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SortedGCIDs returns grid connector ids in lexicographic order.
func (w *World) SortedGCIDs() []string {
	ids := make([]string, 0, len(w.GCs))
	for id := range w.GCs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SortedStationIDs returns charging station ids in lexicographic order.
func (w *World) SortedStationIDs() []string {
	ids := make([]string, 0, len(w.Stations))
	for id := range w.Stations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SortedBatteryIDs returns stationary battery ids in lexicographic order.
func (w *World) SortedBatteryIDs() []string {
	ids := make([]string, 0, len(w.Batteries))
	for id := range w.Batteries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// StationsAt returns the charging stations attached to a grid connector, in
// lexicographic id order.
func (w *World) StationsAt(gcID string) []*model.ChargingStation {
	var out []*model.ChargingStation
	for _, id := range w.SortedStationIDs() {
		s := w.Stations[id]
		if s.ParentGridConnector == gcID {
			out = append(out, s)
		}
	}
	return out
}

// BatteriesAt returns the stationary batteries attached to a grid
// connector, in lexicographic id order.
func (w *World) BatteriesAt(gcID string) []*model.StationaryBattery {
	var out []*model.StationaryBattery
	for _, id := range w.SortedBatteryIDs() {
		b := w.Batteries[id]
		if b.ParentGridConnector == gcID {
			out = append(out, b)
		}
	}
	return out
}

// VehicleAt returns the vehicle connected to a station, if any.
func (w *World) VehicleAt(stationID string) *model.Vehicle {
	for _, v := range w.Vehicles {
		if v.ConnectedStation == stationID {
			return v
		}
	}
	return nil
}

// Now returns the current simulated time.
func (w *World) Now() time.Time { return w.Clock.Now() }

// IsCoreStandingTime reports whether t falls within the declared core
// standing time window, if one is configured.
func (w *World) IsCoreStandingTime(t time.Time) bool {
	if w.CoreStandingTime == nil {
		return false
	}
	cst := w.CoreStandingTime
	weekday := weekdayIndex(t, cst.Convention)
	dayMatches := len(cst.FullDays) == 0
	for _, d := range cst.FullDays {
		if d == weekday {
			dayMatches = true
			break
		}
	}
	if !dayMatches {
		return false
	}
	for _, win := range cst.Times {
		start := win.StartHour*60 + win.StartMinute
		end := win.EndHour*60 + win.EndMinute
		cur := t.Hour()*60 + t.Minute()
		if cur >= start && cur < end {
			return true
		}
	}
	return false
}

func weekdayIndex(t time.Time, conv WeekdayConvention) int {
	// time.Weekday: Sunday=0 .. Saturday=6
	wd := int(t.Weekday())
	switch conv {
	case WeekdayISO:
		if wd == 0 {
			return 7
		}
		return wd
	default: // WeekdayZeroBasedMonday
		if wd == 0 {
			return 6
		}
		return wd - 1
	}
}
