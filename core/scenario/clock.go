// Package scenario holds the discrete-time world model and the per-step
// procedure that applies events, calls the active strategy, and integrates
// the resulting powers into component state and the output time series.
package scenario

import "time"

// Clock advances in fixed-width intervals from a stored start time. All
// arithmetic is done in integer steps; conversion to time.Time/ISO happens
// only at document and report boundaries (§9).
type Clock struct {
	StartTime time.Time
	Interval  time.Duration
	Step      int
}

// Now returns the current wall-clock instant.
func (c Clock) Now() time.Time {
	return c.StartTime.Add(time.Duration(c.Step) * c.Interval)
}

// Advance moves the clock forward by one interval and returns the new time.
func (c *Clock) Advance() time.Time {
	c.Step++
	return c.Now()
}
