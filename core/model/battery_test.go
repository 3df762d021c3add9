package model

import (
	"math"
	"testing"
	"time"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestBatteryLoadFlatCurve(t *testing.T) {
	b := NewBattery(10, 0.5, FlatLoadingCurve(5))
	p, energy := b.Load(5, time.Hour)
	if !almostEqual(p, 5) {
		t.Fatalf("actual power = %v, want 5", p)
	}
	wantEnergy := 5 * 0.95
	if !almostEqual(energy, wantEnergy) {
		t.Fatalf("energy delivered = %v, want %v", energy, wantEnergy)
	}
	wantSoC := 0.5 + wantEnergy/10
	if !almostEqual(b.SoC, wantSoC) {
		t.Fatalf("soc = %v, want %v", b.SoC, wantSoC)
	}
}

func TestBatteryLoadClampsToHeadroom(t *testing.T) {
	b := NewBattery(10, 0.9, FlatLoadingCurve(50))
	_, energy := b.Load(50, time.Hour)
	if !almostEqual(energy, 1.0) {
		t.Fatalf("energy = %v, want headroom of 1.0 kWh", energy)
	}
	if !almostEqual(b.SoC, 1.0) {
		t.Fatalf("soc = %v, want 1.0", b.SoC)
	}
}

func TestBatteryLoadNoOpAtFullOrZeroRequest(t *testing.T) {
	full := NewBattery(10, 1, FlatLoadingCurve(5))
	if p, e := full.Load(5, time.Hour); p != 0 || e != 0 {
		t.Fatalf("expected no-op at full soc, got p=%v e=%v", p, e)
	}
	b := NewBattery(10, 0.5, FlatLoadingCurve(5))
	if p, e := b.Load(0, time.Hour); p != 0 || e != 0 {
		t.Fatalf("expected no-op at zero request, got p=%v e=%v", p, e)
	}
}

func TestBatteryUnloadRespectsTargetSoC(t *testing.T) {
	b := NewBattery(10, 0.5, FlatLoadingCurve(5))
	p, returned := b.Unload(5, time.Hour, 0.2)
	if !almostEqual(p, 3) {
		t.Fatalf("actual discharge power = %v, want 3 (0.3 soc headroom * 10kWh)", p)
	}
	if !almostEqual(b.SoC, 0.2) {
		t.Fatalf("soc = %v, want 0.2", b.SoC)
	}
	wantReturned := 3 * b.efficiency()
	if !almostEqual(returned, wantReturned) {
		t.Fatalf("energy returned = %v, want %v", returned, wantReturned)
	}
}

func TestBatteryUnloadNoOpAtOrBelowTarget(t *testing.T) {
	b := NewBattery(10, 0.2, FlatLoadingCurve(5))
	if p, e := b.Unload(5, time.Hour, 0.2); p != 0 || e != 0 {
		t.Fatalf("expected no-op at target soc, got p=%v e=%v", p, e)
	}
}

func TestBatteryInfiniteCapacityUnload(t *testing.T) {
	b := NewBattery(InfiniteCapacity, 0.5, FlatLoadingCurve(100))
	p, returned := b.Unload(40, time.Hour, 0)
	if !almostEqual(p, 40) {
		t.Fatalf("power = %v, want 40", p)
	}
	wantReturned := 40 * b.efficiency()
	if !almostEqual(returned, wantReturned) {
		t.Fatalf("returned = %v, want %v", returned, wantReturned)
	}
	if b.SoC != 0.5 {
		t.Fatalf("infinite capacity battery soc should not move, got %v", b.SoC)
	}
}

func TestBatteryAvailablePowerZeroWhenAtOrAboveTarget(t *testing.T) {
	b := NewBattery(10, 0.8, FlatLoadingCurve(5))
	if p := b.AvailablePower(time.Hour, 0.8); p != 0 {
		t.Fatalf("expected 0 available power at target, got %v", p)
	}
}

func TestBatteryLoadIterativeConvergesUnderRequestedPower(t *testing.T) {
	b := NewBattery(10, 0.5, FlatLoadingCurve(5))
	p, _ := b.LoadIterative(5, time.Hour)
	if p > 5+IterationEPS {
		t.Fatalf("iterative power %v exceeds requested ceiling 5", p)
	}
	if p < 5-1e-3 {
		t.Fatalf("iterative power %v should converge near the flat curve ceiling of 5", p)
	}
}
