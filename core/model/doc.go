// Package model holds the typed entities of the simulation core: the
// piecewise-linear LoadingCurve, the curve-limited Battery, vehicle types and
// instances, charging stations, grid connectors, stationary batteries and PV
// feed-in. Components are plain structs with methods; cross-references
// (station -> GC, vehicle -> station) are string ids resolved through
// core/scenario.World rather than owning pointers.
package model
