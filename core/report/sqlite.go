package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists rows to a SQLite database via the pure-Go
// modernc.org/sqlite driver (no cgo), adapted from the ancestor's
// dispatch-log store to the per-interval simulation row shape.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS sim_rows (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		step INTEGER,
		ts INTEGER,
		row TEXT
	);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Write inserts row as a JSON blob keyed by step/timestamp for range queries.
func (s *SQLiteStore) Write(ctx context.Context, row Row) error {
	b, err := json.Marshal(row)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sim_rows (step, ts, row) VALUES (?, ?, ?)`,
		row.Timestep, row.Time.Unix(), string(b))
	return err
}

// Query returns rows matching q, ordered by step.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]Row, error) {
	var args []any
	query := `SELECT row FROM sim_rows WHERE 1=1`
	if q.FromStep > 0 {
		query += ` AND step >= ?`
		args = append(args, q.FromStep)
	}
	if q.ToStep > 0 {
		query += ` AND step <= ?`
		args = append(args, q.ToStep)
	}
	query += ` ORDER BY step`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Row
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r Row
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshal row: %w", err)
		}
		if q.GCID != "" {
			if _, ok := r.GridConnectors[q.GCID]; !ok {
				continue
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
