package events

import (
	"sort"
	"sync"
	"time"
)

// entry pairs an Event with its insertion order and consumption state, so
// Events can provide the stable, deterministic ordering the stepper
// requires (§5: fixed iteration order for reproducible output).
type entry struct {
	ev       Event
	seq      int
	consumed bool
}

// Events is an ordered, consumable collection of Event. It is the
// in-process analogue of a message log rather than a pub/sub bus: each
// event is applied exactly once, in StartTime order, with arrivals
// preceding departures of the same vehicle when StartTime ties, and
// otherwise stable by insertion order.
// Events is safe for concurrent Add from a live feed (infra/mqtt's
// Ingestor) racing the stepper's own VisibleAt/ActiveAt/Consume calls; the
// stepper loop itself remains single-threaded (§5), but a live ingestion
// goroutine writing into the same collection is not.
type Events struct {
	mu      sync.Mutex
	entries []*entry
	next    int
}

// New returns an empty Events collection.
func New() *Events { return &Events{} }

// Add appends an event to the collection.
func (e *Events) Add(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = append(e.entries, &entry{ev: ev, seq: e.next})
	e.next++
}

// AddAll appends multiple events, preserving relative order.
func (e *Events) AddAll(evs ...Event) {
	for _, ev := range evs {
		e.Add(ev)
	}
}

// VisibleAt returns, in deterministic order, all not-yet-consumed events
// whose SignalTime has passed (SignalTime <= at).
func (e *Events) VisibleAt(at time.Time) []Event {
	return e.filterSorted(func(en *entry) bool {
		return !en.consumed && !en.ev.SignalTime().After(at)
	})
}

// ActiveAt returns, in deterministic order, all not-yet-consumed events
// whose StartTime has passed (StartTime <= at) — the events the stepper
// should apply this interval.
func (e *Events) ActiveAt(at time.Time) []Event {
	return e.filterSorted(func(en *entry) bool {
		return !en.consumed && !en.ev.StartTime().After(at)
	})
}

func (e *Events) filterSorted(keep func(*entry) bool) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	var matched []*entry
	for _, en := range e.entries {
		if keep(en) {
			matched = append(matched, en)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		ta, tb := a.ev.StartTime(), b.ev.StartTime()
		if !ta.Equal(tb) {
			return ta.Before(tb)
		}
		// Arrivals before departures of the same vehicle, to preserve
		// vehicle identity when a same-interval swap occurs.
		aArr, aOK := sameVehicleArrivalDeparture(a.ev, b.ev)
		if aOK {
			return aArr
		}
		return a.seq < b.seq
	})
	out := make([]Event, len(matched))
	for i, en := range matched {
		out[i] = en.ev
	}
	return out
}

// sameVehicleArrivalDeparture reports, when a and b are an Arrival/Departure
// pair for the same vehicle, whether a is the arrival (and should sort
// first). ok is false otherwise, meaning the tie falls through to
// insertion order.
func sameVehicleArrivalDeparture(a, b Event) (aFirst bool, ok bool) {
	arr, arrOK := a.(ArrivalEvent)
	dep, depOK := b.(DepartureEvent)
	if arrOK && depOK && arr.VehicleID == dep.VehicleID {
		return true, true
	}
	dep2, dep2OK := a.(DepartureEvent)
	arr2, arr2OK := b.(ArrivalEvent)
	if dep2OK && arr2OK && dep2.VehicleID == arr2.VehicleID {
		return false, true
	}
	return false, false
}

// Consume marks an event as applied so it is excluded from future queries.
// Consume marks the first unconsumed entry equal to ev under interface
// equality (same dynamic type and value); passing back the Event obtained
// from VisibleAt/ActiveAt always matches its entry.
func (e *Events) Consume(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, en := range e.entries {
		if !en.consumed && en.ev == ev {
			en.consumed = true
			return
		}
	}
}

// Len returns the total number of events added (consumed or not).
func (e *Events) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.entries)
}

// UpcomingVisible returns not-yet-consumed events that are already visible
// (SignalTime <= now) and whose StartTime falls within [now, now+horizon].
// Strategies with a look-ahead (Balanced-market, Schedule) use this to read
// future grid-operator signals — e.g. price changes — without consuming
// them.
func (e *Events) UpcomingVisible(now time.Time, horizon time.Duration) []Event {
	end := now.Add(horizon)
	return e.filterSorted(func(en *entry) bool {
		if en.consumed || en.ev.SignalTime().After(now) {
			return false
		}
		st := en.ev.StartTime()
		return !st.Before(now) && !st.After(end)
	})
}
