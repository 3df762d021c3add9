package metrics

import (
	"context"

	"github.com/kilianp07/spicev2g/core/report"
)

// MultiSink fans each row out to every configured sink, returning the first
// write error encountered. Close closes every sink regardless of earlier
// errors and returns the first one seen.
type MultiSink struct {
	Sinks []report.Writer
}

// NewMultiSink creates a MultiSink wrapping the given sinks.
func NewMultiSink(sinks ...report.Writer) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

func (m *MultiSink) Write(ctx context.Context, row report.Row) error {
	for _, s := range m.Sinks {
		if err := s.Write(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func (m *MultiSink) Close() error {
	var first error
	for _, s := range m.Sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
