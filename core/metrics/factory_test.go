package metrics_test

import (
	"testing"

	"github.com/kilianp07/spicev2g/core/factory"
	metrics "github.com/kilianp07/spicev2g/core/metrics"
)

func TestNewMetricsSink_NopDefaultAndUnknownType(t *testing.T) {
	s, err := metrics.NewMetricsSink(nil)
	if err != nil {
		t.Fatalf("create nop default: %v", err)
	}
	if _, ok := s.(metrics.NopSink); !ok {
		t.Fatalf("expected NopSink, got %T", s)
	}

	if _, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "missing"}}); err == nil {
		t.Fatal("expected error for unknown type")
	}
}
