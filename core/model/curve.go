package model

import (
	"math"
	"sort"
)

// Point is a single (SoC, max power) breakpoint on a LoadingCurve.
type Point struct {
	SoC      float64
	MaxPower float64 // kW
}

// LoadingCurve is a piecewise-linear, non-negative upper bound on charging
// power as a function of state of charge. Points must have strictly
// increasing SoC; the curve is only meaningfully defined over [0,1] but
// power_at extrapolates using the nearest endpoint outside that range.
type LoadingCurve struct {
	points []Point
}

// NewLoadingCurve builds a curve from breakpoints, sorting them by SoC. It
// does not validate strict monotonicity of duplicate SoC values; callers
// that load curves from scenario documents should reject duplicates there.
func NewLoadingCurve(points []Point) LoadingCurve {
	ps := append([]Point(nil), points...)
	sort.Slice(ps, func(i, j int) bool { return ps[i].SoC < ps[j].SoC })
	return LoadingCurve{points: ps}
}

// FlatLoadingCurve returns a curve with constant max power across [0,1].
func FlatLoadingCurve(power float64) LoadingCurve {
	return NewLoadingCurve([]Point{{SoC: 0, MaxPower: power}, {SoC: 1, MaxPower: power}})
}

// Points returns the curve's breakpoints in SoC order.
func (c LoadingCurve) Points() []Point { return c.points }

// PowerAt returns the maximum charging power at the given SoC by linear
// interpolation. Outside [0,1] (or outside the curve's own bounds) it
// returns the nearest endpoint's power.
func (c LoadingCurve) PowerAt(soc float64) float64 {
	if len(c.points) == 0 {
		return 0
	}
	if soc <= c.points[0].SoC {
		return c.points[0].MaxPower
	}
	last := c.points[len(c.points)-1]
	if soc >= last.SoC {
		return last.MaxPower
	}
	for i := 1; i < len(c.points); i++ {
		lo, hi := c.points[i-1], c.points[i]
		if soc <= hi.SoC {
			if hi.SoC == lo.SoC {
				return hi.MaxPower
			}
			frac := (soc - lo.SoC) / (hi.SoC - lo.SoC)
			return lo.MaxPower + frac*(hi.MaxPower-lo.MaxPower)
		}
	}
	return last.MaxPower
}

// Clamp returns a new curve where every breakpoint's power is capped at
// upperPower. Used to fold a station/GC power ceiling into a vehicle's
// charging curve before integrating.
func (c LoadingCurve) Clamp(upperPower float64) LoadingCurve {
	ps := make([]Point, len(c.points))
	for i, p := range c.points {
		mp := p.MaxPower
		if mp > upperPower {
			mp = upperPower
		}
		ps[i] = Point{SoC: p.SoC, MaxPower: mp}
	}
	return LoadingCurve{points: ps}
}

// scaled returns a new curve with every breakpoint's power multiplied by
// factor. Used to fold a battery's capacity into the curve's rate domain:
// a curve in kW becomes a curve in SoC/hour once divided by capacity (kWh).
func (c LoadingCurve) scaled(factor float64) LoadingCurve {
	ps := make([]Point, len(c.points))
	for i, p := range c.points {
		ps[i] = Point{SoC: p.SoC, MaxPower: p.MaxPower * factor}
	}
	return LoadingCurve{points: ps}
}

// segment returns the breakpoint pair straddling soc, clamped to the curve's
// own domain.
func (c LoadingCurve) segment(soc float64) (Point, Point) {
	if len(c.points) == 1 {
		return c.points[0], c.points[0]
	}
	if soc <= c.points[0].SoC {
		return c.points[0], c.points[1]
	}
	for i := 1; i < len(c.points); i++ {
		if soc <= c.points[i].SoC {
			return c.points[i-1], c.points[i]
		}
	}
	return c.points[len(c.points)-2], c.points[len(c.points)-1]
}

// TimeToReach returns the hours needed to move from socFrom to socTo under
// the curve's own power ceiling (efficiency 1, no external power cap),
// solving the piecewise-linear IVP analytically segment by segment.
// capacity is the battery's kWh capacity: dSoC/dt = power(soc)/capacity, so
// a 1 kW curve point only moves a 1 kWh battery's SoC by 1/hour; callers with
// no real capacity (e.g. InfiniteCapacity sinks) should pass 1.
// Returns posInf (1e18 hours, a finite stand-in for +Inf) if the curve's
// power is ever zero before reaching socTo.
func (c LoadingCurve) TimeToReach(socFrom, socTo, capacity float64) float64 {
	if socTo <= socFrom || len(c.points) == 0 {
		return 0
	}
	if capacity <= 0 {
		capacity = 1
	}
	c = c.scaled(1 / capacity)
	var hours float64
	cur := socFrom
	for cur < socTo {
		lo, hi := c.segment(cur)
		segHi := hi.SoC
		if segHi > socTo {
			segHi = socTo
		}
		if segHi <= cur {
			break
		}
		h, reached := integrateSegment(lo, hi, cur, segHi)
		hours += h
		if !reached {
			return posInf
		}
		cur = segHi
	}
	return hours
}

// SoCAfter returns the SoC reached after advancing `hours` from socFrom,
// under the curve capped at powerCeiling (use +Inf for no extra cap) and
// scaled by efficiency (energy actually stored per kWh drawn). capacity is
// the battery's kWh capacity (see TimeToReach); pass 1 for InfiniteCapacity
// sinks where SoC is not physically meaningful. It solves each segment's
// linear ODE in closed form rather than sub-stepping.
func (c LoadingCurve) SoCAfter(socFrom float64, hours, efficiency, powerCeiling, capacity float64) float64 {
	if hours <= 0 || len(c.points) == 0 {
		return socFrom
	}
	if efficiency <= 0 {
		efficiency = 1
	}
	if capacity <= 0 {
		capacity = 1
	}
	curve := c
	if powerCeiling > 0 {
		curve = c.Clamp(powerCeiling)
	}
	curve = curve.scaled(1 / capacity)
	cur := socFrom
	remaining := hours
	for remaining > 0 && cur < 1 {
		lo, hi := curve.segment(cur)
		next, dt := advanceSegment(lo, hi, cur, remaining, efficiency)
		cur = next
		remaining -= dt
		if dt <= 0 {
			break
		}
	}
	if cur > 1 {
		cur = 1
	}
	return cur
}

const posInf = 1e18

// integrateSegment returns the hours to move from cur to target within a
// linear segment [lo,hi] (SoC domain), assuming unit efficiency and no
// external cap. reached is false if the segment's power is zero.
func integrateSegment(lo, hi Point, cur, target float64) (hours float64, reached bool) {
	if hi.SoC == lo.SoC || target <= cur {
		return 0, true
	}
	slope := (hi.MaxPower - lo.MaxPower) / (hi.SoC - lo.SoC)
	p0 := lo.MaxPower + slope*(cur-lo.SoC)
	p1 := lo.MaxPower + slope*(target-lo.SoC)
	span := target - cur
	if slope == 0 {
		if p0 <= 0 {
			return 0, false
		}
		return span / p0, true
	}
	if p0 <= 0 && p1 <= 0 {
		return 0, false
	}
	// dSoC/dt = power(soc); power is linear in soc over this segment, so
	// soc(t) follows an exponential/linear closed form depending on slope.
	// Using t = integral(1/power(s) ds) from cur to target.
	if p0 <= 0 || p1 <= 0 {
		// power crosses zero inside the segment: only the positive-power
		// portion is reachable.
		zero := lo.SoC - lo.MaxPower/slope
		if slope > 0 {
			target = zero
		} else {
			cur = zero
		}
		if target <= cur {
			return 0, false
		}
		p0 = lo.MaxPower + slope*(cur-lo.SoC)
		p1 = lo.MaxPower + slope*(target-lo.SoC)
		span = target - cur
	}
	// t = (1/slope) * ln(p1/p0)
	if p0 == p1 {
		return span / p0, true
	}
	t := math.Log(p1/p0) / slope
	if t < 0 {
		t = -t
	}
	return t, true
}

// advanceSegment returns the SoC reached and hours actually consumed moving
// forward from cur within [lo,hi] for at most `hours`, with efficiency
// applied to the charged energy.
func advanceSegment(lo, hi Point, cur, hours, efficiency float64) (soc float64, dt float64) {
	if hi.SoC == lo.SoC {
		return hi.SoC, 0
	}
	slope := (hi.MaxPower - lo.MaxPower) / (hi.SoC - lo.SoC)
	p0 := lo.MaxPower + slope*(cur-lo.SoC)
	if p0 <= 0 {
		return hi.SoC, hours // curve gives zero power here; nothing to integrate, skip segment
	}
	segSpanHours, reached := integrateSegment(lo, hi, cur, hi.SoC)
	fullHours := segSpanHours / efficiency
	if reached && fullHours <= hours {
		return hi.SoC, fullHours
	}
	// Solve for the SoC reached within `hours * efficiency` of curve-time.
	curveHours := hours * efficiency
	if slope == 0 {
		deltaSoC := p0 * curveHours
		next := cur + deltaSoC
		if next > hi.SoC {
			next = hi.SoC
		}
		return next, hours
	}
	// soc(t) solves dsoc/dt = efficiency*(lo.MaxPower + slope*(soc-lo.SoC))
	// p(t) = p0 * exp(slope*curveHours); soc = cur + (p(t)-p0)/slope
	pt := p0 * math.Exp(slope*curveHours)
	next := cur + (pt-p0)/slope
	if next > hi.SoC {
		next = hi.SoC
	}
	if next < lo.SoC {
		next = lo.SoC
	}
	return next, hours
}
