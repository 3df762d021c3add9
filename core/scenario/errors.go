package scenario

import "fmt"

// StepError is a fatal-for-this-step condition caught by the stepper (§7).
// It never aborts the run: the stepper logs it, appends the row it managed
// to produce, and continues to the next interval.
type StepError struct {
	Step      int
	Component string
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d, component %s: %v", e.Step, e.Component, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func newStepError(step int, component string, err error) *StepError {
	return &StepError{Step: step, Component: component, Err: err}
}
