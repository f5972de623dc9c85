// Package store provides reference persistence adapters for a host
// embedding FormCalc: a MySQL-backed formula source and an audit sink
// for batch results. Neither the engine core nor the evaluator imports
// this package; persistence is a host concern wired in at the edges.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/nexuscrm/formcalc/engine"
	"github.com/nexuscrm/formcalc/value"
)

// FormulaSource loads named formula source text for a batch.
type FormulaSource interface {
	LoadBatch(ctx context.Context, names []string) ([]engine.FormulaInput, error)
}

// ResultSink records a batch's results and errors for audit after
// Engine.Execute returns.
type ResultSink interface {
	RecordBatch(ctx context.Context, results map[string]value.Value, errs map[string]string) error
}

// MySQLStore implements FormulaSource and ResultSink against a
// `formulas` table (name, source) and a `formula_batch_runs` audit
// table (name, result_json, error_message).
type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

func (s *MySQLStore) LoadBatch(ctx context.Context, names []string) ([]engine.FormulaInput, error) {
	if len(names) == 0 {
		return nil, nil
	}

	placeholders := make([]byte, 0, len(names)*2)
	args := make([]interface{}, len(names))
	for i, n := range names {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args[i] = n
	}

	query := fmt.Sprintf("SELECT name, source FROM formulas WHERE name IN (%s)", placeholders)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: load batch: %w", err)
	}
	defer rows.Close()

	var out []engine.FormulaInput
	for rows.Next() {
		var f engine.FormulaInput
		if err := rows.Scan(&f.Name, &f.Source); err != nil {
			return nil, fmt.Errorf("store: scan formula row: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *MySQLStore) RecordBatch(ctx context.Context, results map[string]value.Value, errs map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin audit tx: %w", err)
	}
	defer tx.Rollback()

	for name, v := range results {
		payload, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("store: marshal result for %q: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO formula_batch_runs (name, result_json, error_message) VALUES (?, ?, NULL)",
			name, payload,
		); err != nil {
			return fmt.Errorf("store: record result for %q: %w", name, err)
		}
	}

	for name, msg := range errs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO formula_batch_runs (name, result_json, error_message) VALUES (?, NULL, ?)",
			name, msg,
		); err != nil {
			return fmt.Errorf("store: record error for %q: %w", name, err)
		}
	}

	return tx.Commit()
}
