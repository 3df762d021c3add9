package report

import "context"

// Writer persists simulation rows as a run progresses (§6 Persistent
// output). Implementations: JSONLStore, SQLiteStore (this package),
// infra/metrics.InfluxSink and infra/metrics.PromSink.
type Writer interface {
	Write(ctx context.Context, row Row) error
	Close() error
}

// Query filters rows returned by a Writer that also supports reading back
// (JSONLStore, SQLiteStore).
type Query struct {
	FromStep int
	ToStep   int
	GCID     string
}
