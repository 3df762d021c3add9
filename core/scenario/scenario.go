package scenario

import (
	"github.com/kilianp07/spicev2g/core/logger"
	"github.com/kilianp07/spicev2g/core/report"
)

// Scenario is a constructed, steppable World together with the run
// identifier attached to its summary (§3.2 google/uuid).
type Scenario struct {
	RunID   string
	World   *World
	Stepper *Stepper
}

// New builds a Scenario from a decoded Document, resolving the Open
// Questions via opts and wiring the given strategy and logger.
func New(doc *Document, opts BuildOptions, strat Strategy, log logger.Logger) (*Scenario, error) {
	w, err := Build(doc, opts)
	if err != nil {
		return nil, err
	}
	return &Scenario{
		RunID:   newRunID(),
		World:   w,
		Stepper: NewStepper(w, strat, log),
	}, nil
}

// Steps determines how many intervals to run: doc.Scenario.NIntervals if
// set, otherwise derived from StopTime.
func (m *ScenarioMeta) Steps() int {
	if m.NIntervals > 0 {
		return m.NIntervals
	}
	if m.StopTime != nil && m.IntervalMinutes > 0 {
		total := m.StopTime.Sub(m.StartTime)
		return int(total.Minutes()) / m.IntervalMinutes
	}
	return 0
}

// Run advances the scenario for n intervals, returning one row per interval
// in order. A row with a non-empty Errors map signals a per-step condition
// (§7); Run itself only returns an error if the stepper cannot proceed at
// all.
func (s *Scenario) Run(n int) ([]report.Row, error) {
	rows := make([]report.Row, 0, n)
	for i := 0; i < n; i++ {
		row, err := s.Stepper.Step()
		if err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
