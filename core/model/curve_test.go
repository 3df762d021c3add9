package model

import (
	"math"
	"testing"
)

func TestFlatLoadingCurvePowerAt(t *testing.T) {
	c := FlatLoadingCurve(7)
	for _, soc := range []float64{-0.1, 0, 0.5, 1, 1.1} {
		if p := c.PowerAt(soc); !almostEqual(p, 7) {
			t.Fatalf("PowerAt(%v) = %v, want 7", soc, p)
		}
	}
}

func TestLoadingCurvePowerAtInterpolates(t *testing.T) {
	c := NewLoadingCurve([]Point{{SoC: 0, MaxPower: 10}, {SoC: 1, MaxPower: 0}})
	if p := c.PowerAt(0.5); !almostEqual(p, 5) {
		t.Fatalf("PowerAt(0.5) = %v, want 5", p)
	}
	if p := c.PowerAt(0.25); !almostEqual(p, 7.5) {
		t.Fatalf("PowerAt(0.25) = %v, want 7.5", p)
	}
}

func TestLoadingCurveSortsBreakpoints(t *testing.T) {
	c := NewLoadingCurve([]Point{{SoC: 1, MaxPower: 0}, {SoC: 0, MaxPower: 10}})
	pts := c.Points()
	if pts[0].SoC != 0 || pts[1].SoC != 1 {
		t.Fatalf("points not sorted by soc: %#v", pts)
	}
}

func TestLoadingCurveClamp(t *testing.T) {
	c := NewLoadingCurve([]Point{{SoC: 0, MaxPower: 10}, {SoC: 1, MaxPower: 20}})
	clamped := c.Clamp(15)
	pts := clamped.Points()
	if pts[0].MaxPower != 10 {
		t.Fatalf("expected unclamped low point to stay at 10, got %v", pts[0].MaxPower)
	}
	if pts[1].MaxPower != 15 {
		t.Fatalf("expected high point clamped to 15, got %v", pts[1].MaxPower)
	}
}

func TestLoadingCurveTimeToReachFlat(t *testing.T) {
	c := FlatLoadingCurve(10)
	// capacity=1 kWh: dSoC/dt = power/capacity = power, so this is the
	// degenerate case where SoC units and kWh coincide.
	hours := c.TimeToReach(0, 0.5, 1)
	if !almostEqual(hours, 0.05) {
		t.Fatalf("hours = %v, want 0.05 (0.5 soc / 10 power)", hours)
	}
}

func TestLoadingCurveTimeToReachScalesByCapacity(t *testing.T) {
	c := FlatLoadingCurve(10)
	// A 50 kWh battery needs 50x the energy of the capacity=1 case to move
	// the same 0.5 SoC, so it takes 50x as long at the same curve power.
	hours := c.TimeToReach(0, 0.5, 50)
	if !almostEqual(hours, 2.5) {
		t.Fatalf("hours = %v, want 2.5 (0.5*50 kWh / 10 kW)", hours)
	}
}

func TestLoadingCurveTimeToReachNoOpWhenAlreadyThere(t *testing.T) {
	c := FlatLoadingCurve(10)
	if hours := c.TimeToReach(0.5, 0.5, 1); hours != 0 {
		t.Fatalf("expected 0 hours, got %v", hours)
	}
	if hours := c.TimeToReach(0.6, 0.5, 1); hours != 0 {
		t.Fatalf("expected 0 hours for backwards target, got %v", hours)
	}
}

func TestLoadingCurveSoCAfterFlat(t *testing.T) {
	c := FlatLoadingCurve(10)
	soc := c.SoCAfter(0, 0.05, 1, 1e18, 1)
	if !almostEqual(soc, 0.5) {
		t.Fatalf("soc after = %v, want 0.5", soc)
	}
}

func TestLoadingCurveSoCAfterScalesByCapacity(t *testing.T) {
	c := FlatLoadingCurve(10)
	// Same 10 kW curve power, but spread over a 50 kWh battery: in 2.5 hours
	// it should deliver 25 kWh, i.e. 0.5 SoC, matching spec.md §8 scenario 2's
	// order of magnitude (a Sprinter-sized pack, not a 1 kWh one).
	soc := c.SoCAfter(0, 2.5, 1, 1e18, 50)
	if !almostEqual(soc, 0.5) {
		t.Fatalf("soc after = %v, want 0.5", soc)
	}
}

func TestLoadingCurveSoCAfterClampsAtOne(t *testing.T) {
	c := FlatLoadingCurve(10)
	soc := c.SoCAfter(0.9, 1, 1, 1e18, 1)
	if soc != 1 {
		t.Fatalf("soc after = %v, want 1 (clamped)", soc)
	}
}

// Curve monotonicity law: PowerAt never goes negative and, within any
// segment, stays between that segment's two breakpoint powers — a taper
// curve's power only ever moves toward its next breakpoint, never overshoots
// or dips below both ends.
func TestLoadingCurvePowerAtBoundedWithinSegments(t *testing.T) {
	c := NewLoadingCurve([]Point{
		{SoC: 0, MaxPower: 11},
		{SoC: 0.2, MaxPower: 22},
		{SoC: 0.8, MaxPower: 22},
		{SoC: 1, MaxPower: 3},
	})
	for soc := 0.0; soc <= 1.0001; soc += 0.01 {
		p := c.PowerAt(soc)
		if p < 0 {
			t.Fatalf("PowerAt(%v) = %v, curve power must never go negative", soc, p)
		}
		lo, hi := c.segment(soc)
		min, max := lo.MaxPower, hi.MaxPower
		if min > max {
			min, max = max, min
		}
		const slack = 1e-9
		if p < min-slack || p > max+slack {
			t.Fatalf("PowerAt(%v) = %v, want within segment bounds [%v,%v]", soc, p, min, max)
		}
	}
}

// PowerAt must be continuous at every interior breakpoint: approaching from
// below and from above both converge to the breakpoint's own declared power,
// so strategies binary-searching across a breakpoint never see a jump.
func TestLoadingCurvePowerAtContinuousAtBreakpoints(t *testing.T) {
	c := NewLoadingCurve([]Point{
		{SoC: 0, MaxPower: 11},
		{SoC: 0.2, MaxPower: 22},
		{SoC: 0.8, MaxPower: 22},
		{SoC: 1, MaxPower: 3},
	})
	const eps = 1e-6
	for _, bp := range c.Points()[1 : len(c.Points())-1] {
		below := c.PowerAt(bp.SoC - eps)
		above := c.PowerAt(bp.SoC + eps)
		at := c.PowerAt(bp.SoC)
		if !almostEqual(at, bp.MaxPower) {
			t.Fatalf("PowerAt(%v) = %v, want breakpoint power %v", bp.SoC, at, bp.MaxPower)
		}
		if math.Abs(below-at) > 1e-3 {
			t.Fatalf("PowerAt discontinuous approaching soc=%v from below: %v vs %v", bp.SoC, below, at)
		}
		if math.Abs(above-at) > 1e-3 {
			t.Fatalf("PowerAt discontinuous approaching soc=%v from above: %v vs %v", bp.SoC, above, at)
		}
	}
}
