package scenario

import (
	"sort"
	"time"
)

// TimeSeries is a pre-materialized, piecewise-constant function of time: the
// core accepts this rather than a CSV file handle (§9), leaving CSV
// ingestion, resampling and the "factor" multiplier to an external
// collaborator.
type TimeSeries struct {
	points []tsPoint
}

type tsPoint struct {
	at    time.Time
	value float64
}

// NewTimeSeries builds a TimeSeries from (time, value) samples, sorting them
// by time.
func NewTimeSeries(samples map[time.Time]float64) TimeSeries {
	ts := TimeSeries{points: make([]tsPoint, 0, len(samples))}
	for t, v := range samples {
		ts.points = append(ts.points, tsPoint{at: t, value: v})
	}
	sort.Slice(ts.points, func(i, j int) bool { return ts.points[i].at.Before(ts.points[j].at) })
	return ts
}

// ConstantTimeSeries returns a TimeSeries holding a single constant value.
func ConstantTimeSeries(value float64) TimeSeries {
	return TimeSeries{points: []tsPoint{{at: time.Time{}, value: value}}}
}

// At returns the value in effect at time t: the most recent sample at or
// before t, or the first sample if t precedes all of them. Missing values
// after the end of the series are held at the last observed value (§6).
func (ts TimeSeries) At(t time.Time) float64 {
	if len(ts.points) == 0 {
		return 0
	}
	idx := sort.Search(len(ts.points), func(i int) bool { return ts.points[i].at.After(t) })
	if idx == 0 {
		return ts.points[0].value
	}
	return ts.points[idx-1].value
}

// Empty reports whether the series carries no samples.
func (ts TimeSeries) Empty() bool { return len(ts.points) == 0 }
