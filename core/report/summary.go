package report

// Summary carries the totals and KPIs computed after a run completes: drawn
// energy, the peak load of each grid connector over the whole run,
// standing-time shares, vehicle battery cycle count, times below desired
// SoC (with and without margin), and the total energy cost (§6). Peaks are
// not split by time window, and the cost is a single total with no
// per-component or per-window breakdown.
type Summary struct {
	RunID string

	DrawnEnergyKWh   float64
	PeakLoadKW       map[string]float64 // GC id -> peak observed load
	StandingTimeFrac map[string]float64 // vehicle id -> fraction of run connected
	BatteryCycles    map[string]float64 // vehicle id -> equivalent full cycles
	BelowDesiredSoC  map[string]int     // vehicle id -> steps below desired_soc
	BelowDesiredSoCWithMargin map[string]int // same, with a tolerance margin applied
	TotalCost        float64
	StepErrors       int
}

// DesiredSoCMargin is the tolerance subtracted from desired_soc before
// counting a step as "below desired SoC with margin".
const DesiredSoCMargin = 0.02

// Summarize folds a run's rows (plus the per-vehicle desired SoC map
// supplied by the caller, since Row does not carry it) into a Summary.
func Summarize(runID string, rows []Row, desiredSoC map[string]float64) Summary {
	s := Summary{
		RunID:                     runID,
		PeakLoadKW:                make(map[string]float64),
		StandingTimeFrac:          make(map[string]float64),
		BatteryCycles:             make(map[string]float64),
		BelowDesiredSoC:           make(map[string]int),
		BelowDesiredSoCWithMargin: make(map[string]int),
	}
	connectedSteps := make(map[string]int)
	prevSoC := make(map[string]float64)
	for _, row := range rows {
		hours := row.Interval.Hours()
		if hours <= 0 {
			hours = 1 // rows built without a Clock (unit tests) default to a 1-hour step
		}
		for gcID, gr := range row.GridConnectors {
			if gr.Load > s.PeakLoadKW[gcID] {
				s.PeakLoadKW[gcID] = gr.Load
			}
			energy := gr.Load * hours
			s.DrawnEnergyKWh += energy
			s.TotalCost += energy * gr.Price
		}
		s.StepErrors += len(row.Errors)
		for vid, soc := range row.VehicleSoC {
			connectedSteps[vid]++
			if prev, ok := prevSoC[vid]; ok {
				s.BatteryCycles[vid] += absFloat(soc-prev) / 2
			}
			prevSoC[vid] = soc
			desired, ok := desiredSoC[vid]
			if !ok {
				continue
			}
			if soc < desired {
				s.BelowDesiredSoC[vid]++
			}
			if soc < desired-DesiredSoCMargin {
				s.BelowDesiredSoCWithMargin[vid]++
			}
		}
	}
	if len(rows) > 0 {
		for vid, steps := range connectedSteps {
			s.StandingTimeFrac[vid] = float64(steps) / float64(len(rows))
		}
	}
	return s
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
