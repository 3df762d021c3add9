package metrics

import (
	"context"

	"github.com/kilianp07/spicev2g/core/report"
)

// NopSink discards every row. It is the default when a run configures no
// metrics sinks.
type NopSink struct{}

func (NopSink) Write(context.Context, report.Row) error { return nil }
func (NopSink) Close() error                             { return nil }
