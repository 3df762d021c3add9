package model

// ChargingStation is a single vehicle's interface below a grid connector.
type ChargingStation struct {
	ID                 string
	ParentGridConnector string
	MaxPower           float64
	MinPower           float64 // refuse-charge threshold, kW
	CurrentPower       float64 // set this interval; may be negative (V2G)
	CurrentVehicle     string  // empty if Free
}

// Free reports whether the station has no vehicle plugged in.
func (s ChargingStation) Free() bool { return s.CurrentVehicle == "" }
