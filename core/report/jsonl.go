package report

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"sync"
)

// JSONLStore appends one JSON object per row to a flat file, adapted from
// the ancestor's dispatch-decision JSONL store to the per-interval
// simulation row shape.
type JSONLStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONLStore creates (or truncates-safe opens) the file at path.
func NewJSONLStore(path string) (*JSONLStore, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	if cerr := f.Close(); cerr != nil {
		return nil, cerr
	}
	return &JSONLStore{path: path}, nil
}

// Write appends row as one JSON line.
func (s *JSONLStore) Write(ctx context.Context, row Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return json.NewEncoder(f).Encode(row)
}

// Query reads back rows matching q, filtering by step range.
func (s *JSONLStore) Query(ctx context.Context, q Query) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	var out []Row
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var r Row
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			continue
		}
		if q.FromStep > 0 && r.Timestep < q.FromStep {
			continue
		}
		if q.ToStep > 0 && r.Timestep > q.ToStep {
			continue
		}
		if q.GCID != "" {
			if _, ok := r.GridConnectors[q.GCID]; !ok {
				continue
			}
		}
		out = append(out, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Close is a no-op: the file handle is opened and closed per call.
func (s *JSONLStore) Close() error { return nil }
