package model

import (
	"math"
	"time"
)

// InfiniteCapacity marks a Battery as an unlimited sink/source at constant
// power (a grid-like stationary battery with no real SoC ceiling).
const InfiniteCapacity = math.MaxFloat64

// IterationEPS bounds the numerical loops used by LoadIterative and by
// strategies performing a binary search over charging power (Balanced).
const IterationEPS = 1e-5

// IterationLimit bounds the number of iterations a numerical loop may take
// before returning its best bound and logging a non-convergence warning.
const IterationLimit = 12

// Battery models an energy store with curve-limited charge/discharge and a
// round-trip efficiency. Capacity may be InfiniteCapacity.
type Battery struct {
	Capacity         float64 // kWh, may be InfiniteCapacity
	SoC              float64 // [0,1]
	Curve            LoadingCurve
	Efficiency       float64 // default 0.95, applied on charge and discharge
	AllowNegativeSoC bool
	ResetNegativeSoC bool
}

// NewBattery returns a Battery with the documented default efficiency.
func NewBattery(capacity float64, soc float64, curve LoadingCurve) *Battery {
	return &Battery{Capacity: capacity, SoC: soc, Curve: curve, Efficiency: 0.95}
}

func (b *Battery) efficiency() float64 {
	if b.Efficiency <= 0 {
		return 0.95
	}
	return b.Efficiency
}

// Load requests to charge at `power` kW for `dt`, returning the power
// actually drawn and the energy delivered into the battery (post-efficiency).
// At SoC=1 (or for a non-positive request) it returns zero with no effect.
func (b *Battery) Load(power float64, dt time.Duration) (actualPower, energyDelivered float64) {
	if power <= 0 || dt <= 0 || b.SoC >= 1 {
		return 0, 0
	}
	hours := dt.Hours()
	ceiling := b.Curve.PowerAt(b.SoC)
	p := math.Min(power, ceiling)
	if p <= 0 {
		return 0, 0
	}
	eta := b.efficiency()
	energy := p * hours * eta
	if b.Capacity != InfiniteCapacity {
		headroom := (1 - b.SoC) * b.Capacity
		if energy > headroom {
			energy = headroom
			if hours > 0 {
				p = energy / (hours * eta)
			}
		}
		b.SoC += energy / b.Capacity
		if b.SoC > 1 {
			b.SoC = 1
		}
	}
	return p, energy
}

// Unload requests to discharge at `power` kW for `dt`, refusing to go below
// targetSoC. It returns the power actually delivered out of the battery and
// the energy that reaches the grid side after applying discharge efficiency
// to the stored energy drawn down — the mirror of Load's charge-side scaling,
// so a full charge/discharge round trip on the same stored-energy delta loses
// exactly (1-efficiency^2) of the energy originally drawn from the grid.
func (b *Battery) Unload(power float64, dt time.Duration, targetSoC float64) (actualPower, energyReturned float64) {
	if power <= 0 || dt <= 0 || b.SoC <= targetSoC {
		return 0, 0
	}
	hours := dt.Hours()
	ceiling := b.Curve.PowerAt(b.SoC)
	p := math.Min(power, ceiling)
	if p <= 0 {
		return 0, 0
	}
	eta := b.efficiency()
	if b.Capacity == InfiniteCapacity {
		return p, p * hours * eta
	}
	avail := (b.SoC - targetSoC) * b.Capacity
	drawn := p * hours
	if drawn > avail {
		drawn = avail
		if hours > 0 {
			p = drawn / hours
		}
	}
	b.SoC -= drawn / b.Capacity
	if b.SoC < 0 {
		b.SoC = 0
	}
	return p, drawn * eta
}

// LoadIterative allocates a power request by binary search, bounding energy
// delivered to the requested `power` ceiling within IterationEPS of the
// theoretical curve-limited maximum. It is used by strategies (Balanced)
// that want load() to converge on a stable operating point rather than
// simply clamping to the instantaneous curve ceiling.
func (b *Battery) LoadIterative(power float64, dt time.Duration) (actualPower, energyDelivered float64) {
	if power <= 0 || dt <= 0 || b.SoC >= 1 {
		return 0, 0
	}
	lo, hi := 0.0, power
	snapshot := *b
	for i := 0; i < IterationLimit && hi-lo > IterationEPS; i++ {
		mid := (lo + hi) / 2
		trial := snapshot
		p, _ := trial.Load(mid, dt)
		if p >= mid-IterationEPS {
			lo = mid
		} else {
			hi = mid
		}
	}
	return b.Load(hi, dt)
}

// AvailablePower returns the maximum average power sustainable over dt up to
// targetSoC under the curve, with no side effects on the battery.
func (b *Battery) AvailablePower(dt time.Duration, targetSoC float64) float64 {
	if dt <= 0 || b.SoC >= targetSoC {
		return 0
	}
	hours := dt.Hours()
	if hours <= 0 {
		return 0
	}
	capacity := b.Capacity
	if capacity == InfiniteCapacity {
		capacity = 1
	}
	reached := b.Curve.SoCAfter(b.SoC, hours, b.efficiency(), math.MaxFloat64, capacity)
	if reached > targetSoC {
		reached = targetSoC
	}
	deltaSoC := reached - b.SoC
	if deltaSoC <= 0 {
		return 0
	}
	if b.Capacity == InfiniteCapacity {
		return b.Curve.PowerAt(b.SoC)
	}
	energy := deltaSoC * b.Capacity / b.efficiency()
	return energy / hours
}
