package model

import "math"

// VoltageLevel tags a grid connector's point of attachment.
type VoltageLevel string

const (
	VoltageHV    VoltageLevel = "HV"
	VoltageHVMV  VoltageLevel = "HV/MV"
	VoltageMV    VoltageLevel = "MV"
	VoltageMVLV  VoltageLevel = "MV/LV"
	VoltageLV    VoltageLevel = "LV"
	VoltageEHV   VoltageLevel = "eHV"
	VoltageEHVHV VoltageLevel = "eHV/HV"
)

// GridConnector is the shared external meter and hard power cap for a site.
// CurrentLoads holds named, additive kW contributions (fixed loads, local
// generation as negative feed-in, charging stations, stationary batteries).
type GridConnector struct {
	ID             string
	MaxPower       float64 // kW, or InfiniteCapacity
	VoltageLevel   VoltageLevel
	CurrentLoads   map[string]float64
	Cost           Cost
	GridOperator   string
	Schedule       *float64 // target kW for this interval, nil if unset
	ChargingWindow *bool    // "encouraged" window flag for this interval, nil if unset
}

// NewGridConnector returns a GridConnector with an initialized load map.
func NewGridConnector(id string, maxPower float64) *GridConnector {
	return &GridConnector{ID: id, MaxPower: maxPower, CurrentLoads: make(map[string]float64)}
}

// AddLoad adds kW onto a named contribution to the connector's load,
// accumulating with any value already stored under name (SetLoad replaces).
// kW may be negative to represent feed-in.
func (g *GridConnector) AddLoad(name string, kW float64) {
	if g.CurrentLoads == nil {
		g.CurrentLoads = make(map[string]float64)
	}
	g.CurrentLoads[name] += kW
}

// SetLoad overwrites a named contribution rather than accumulating it.
func (g *GridConnector) SetLoad(name string, kW float64) {
	if g.CurrentLoads == nil {
		g.CurrentLoads = make(map[string]float64)
	}
	g.CurrentLoads[name] = kW
}

// CurrentLoad returns the sum of all named contributions.
func (g *GridConnector) CurrentLoad() float64 {
	var sum float64
	for _, v := range g.CurrentLoads {
		sum += v
	}
	return sum
}

// Headroom returns the remaining power budget before MaxPower is reached,
// optionally excluding one named contribution (the caller's own, not-yet
// committed load) from the sum.
func (g *GridConnector) Headroom(forName string) float64 {
	if g.MaxPower == InfiniteCapacity {
		return math.MaxFloat64
	}
	var sum float64
	for name, v := range g.CurrentLoads {
		if name == forName {
			continue
		}
		sum += v
	}
	h := g.MaxPower - sum
	if h < 0 {
		return 0
	}
	return h
}

// OverLimit reports whether the connector currently exceeds MaxPower by more
// than eps.
func (g *GridConnector) OverLimit(eps float64) bool {
	if g.MaxPower == InfiniteCapacity {
		return false
	}
	return g.CurrentLoad() > g.MaxPower+eps
}

func (g *GridConnector) SetSchedule(kW float64)    { g.Schedule = &kW }
func (g *GridConnector) SetWindow(active bool)     { g.ChargingWindow = &active }
func (g *GridConnector) SetCost(c Cost)            { g.Cost = c }
func (g *GridConnector) SetMaxPower(kW float64)    { g.MaxPower = kW }
