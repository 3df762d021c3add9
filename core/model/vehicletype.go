package model

// VehicleType is the shared template a Vehicle instance is stamped from.
// Mileage is carried only for scenario generation; the simulation core never
// reads it.
type VehicleType struct {
	Name              string
	Capacity          float64 // kWh
	Mileage           float64 // kWh/100km, scenario-generation only
	ChargingCurve     LoadingCurve
	MinChargingPower  float64 // fraction of curve-peak below which the vehicle refuses to charge
	V2G               bool
	V2GPowerFactor    float64 // fraction of curve applied when discharging
	DischargeLimit    float64 // minimum SoC while discharging
	BatteryEfficiency float64 // default 0.95
}

func (t VehicleType) efficiency() float64 {
	if t.BatteryEfficiency <= 0 {
		return 0.95
	}
	return t.BatteryEfficiency
}

// Efficiency returns the round-trip efficiency this type's batteries charge
// and discharge at, defaulting to 0.95 when unset.
func (t VehicleType) Efficiency() float64 {
	return t.efficiency()
}

// CurvePeak returns the maximum power anywhere on the charging curve, used
// to derive the refuse-charge threshold (MinChargingPower × peak).
func (t VehicleType) CurvePeak() float64 {
	peak := 0.0
	for _, p := range t.ChargingCurve.Points() {
		if p.MaxPower > peak {
			peak = p.MaxPower
		}
	}
	return peak
}

// MinChargingThreshold returns the absolute kW below which a vehicle of this
// type refuses to charge.
func (t VehicleType) MinChargingThreshold() float64 {
	return t.MinChargingPower * t.CurvePeak()
}
