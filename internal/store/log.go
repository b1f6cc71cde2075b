package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/lodestar/internal/ir"
	"github.com/roach88/lodestar/internal/logquery"
)

// ReadLog returns a slot's entries with seq greater than since, ordered by
// seq. Returns an empty slice (not nil) when there are none.
func (s *Store) ReadLog(ctx context.Context, slot string, since int64) ([]ir.EventLogEntry, error) {
	q := logquery.Query{Slot: slot}
	if since > 0 {
		q.Filter = logquery.After{Seq: since}
	}
	return s.QueryLog(ctx, q)
}

// ReadGraphLog returns a slot's entries that were resolved against graphID.
func (s *Store) ReadGraphLog(ctx context.Context, slot, graphID string) ([]ir.EventLogEntry, error) {
	return s.QueryLog(ctx, logquery.Query{
		Slot:   slot,
		Filter: logquery.Equals{Field: logquery.FieldGraph, Value: ir.IRString(graphID)},
	})
}

// QueryLog returns the entries matching q in seq order.
func (s *Store) QueryLog(ctx context.Context, q logquery.Query) ([]ir.EventLogEntry, error) {
	query, params, err := logquery.Compile(q)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query log: %w", err)
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]ir.EventLogEntry, error) {
	defer rows.Close()

	entries := []ir.EventLogEntry{}
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		var e ir.EventLogEntry
		if err := unmarshalText(text, "entry", &e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}
