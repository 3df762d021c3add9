package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/kilianp07/spicev2g/core/report"
)

type recordSink struct {
	writes int
	closes int
}

func (r *recordSink) Write(context.Context, report.Row) error {
	r.writes++
	return nil
}

func (r *recordSink) Close() error {
	r.closes++
	return nil
}

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2)
	row := report.NewRow(0, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err := m.Write(context.Background(), row); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if s1.writes != 1 || s2.writes != 1 {
		t.Fatalf("write not forwarded to both sinks")
	}
	if s1.closes != 1 || s2.closes != 1 {
		t.Fatalf("close not forwarded to both sinks")
	}
}
