package state

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/leapstack-labs/catalogsql/pkg/parser"
)

// SaveStatements stores the statements of a run in order.
func (s *SQLiteStore) SaveStatements(ctx context.Context, runID string, parsed []parser.Parsed) error {
	if s.db == nil {
		return ErrNotOpen
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO statements
				(run_id, seq, kind, catalog_name, schema_name, table_name, filename, line, sql)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i, p := range parsed {
			m := p.Meta
			if _, err := stmt.ExecContext(ctx,
				runID, i, p.Statement.Kind().String(),
				m.Catalog, m.Schema, m.Table, m.Filename, m.Line,
				p.Statement.String(),
			); err != nil {
				return fmt.Errorf("failed to save statement %d: %w", i, err)
			}
		}
		return nil
	})
}

// Statements returns the statements of a run in order.
func (s *SQLiteStore) Statements(ctx context.Context, runID string) ([]StatementRecord, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, catalog_name, schema_name, table_name, filename, line, sql
		FROM statements WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query statements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []StatementRecord
	for rows.Next() {
		var r StatementRecord
		if err := rows.Scan(&r.Seq, &r.Kind,
			&r.Meta.Catalog, &r.Meta.Schema, &r.Meta.Table, &r.Meta.Filename, &r.Meta.Line,
			&r.SQL); err != nil {
			return nil, fmt.Errorf("failed to scan statement: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read statements: %w", err)
	}
	return out, nil
}

// SaveLocations stores the external table locations of a run.
func (s *SQLiteStore) SaveLocations(ctx context.Context, runID string, locs []parser.Location) error {
	if s.db == nil {
		return ErrNotOpen
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO locations (run_id, name, location, resolved, glob, file_type)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (run_id, name) DO UPDATE SET
				location = excluded.location,
				resolved = excluded.resolved,
				glob = excluded.glob,
				file_type = excluded.file_type`)
		if err != nil {
			return fmt.Errorf("failed to prepare location insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, l := range locs {
			if _, err := stmt.ExecContext(ctx, runID, l.Name, l.Location, l.Resolved, l.Glob, l.FileType); err != nil {
				return fmt.Errorf("failed to save location %s: %w", l.Name, err)
			}
		}
		return nil
	})
}

// Locations returns the external table locations of a run sorted by name.
func (s *SQLiteStore) Locations(ctx context.Context, runID string) ([]parser.Location, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, location, resolved, glob, file_type
		FROM locations WHERE run_id = ? ORDER BY name`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []parser.Location
	for rows.Next() {
		var l parser.Location
		if err := rows.Scan(&l.Name, &l.Location, &l.Resolved, &l.Glob, &l.FileType); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read locations: %w", err)
	}
	return out, nil
}

// inTx runs fn in a transaction, committing when fn succeeds.
func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
