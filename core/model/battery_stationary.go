package model

// StationaryBattery is a Battery attached to a grid connector. Strategies
// treat it as a load that can be positive (charging from the GC) or
// negative (discharging into the GC).
type StationaryBattery struct {
	ID                  string
	ParentGridConnector string
	Battery             Battery
	CurrentPower        float64 // set this interval; positive charges, negative discharges
}

// PV is a local generation source: a non-negative kW time series at a grid
// connector. NominalPower is used by report for feed-in remuneration only.
type PV struct {
	ID                  string
	ParentGridConnector string
	NominalPower        float64
}
