package store

import (
	"context"
	"fmt"

	"github.com/roach88/strata/internal/ir"
)

// RunSummary describes one archived evaluation run.
type RunSummary struct {
	ID            string
	RuleSetHash   string
	EngineVersion string
	IRVersion     string
	CreatedAt     string
	Derived       int
	Deductions    int
}

// AddBaseFact inserts a base fact. Duplicate tuples for a relation are
// silently ignored (idempotent by tuple key).
func (s *Store) AddBaseFact(ctx context.Context, relation string, t ir.Tuple) error {
	tupleJSON, err := marshalTuple(t)
	if err != nil {
		return fmt.Errorf("add base fact: %w", err)
	}
	key, err := ir.TupleKey(t)
	if err != nil {
		return fmt.Errorf("add base fact: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO base_facts (relation, tuple, tuple_key)
		VALUES (?, ?, ?)
		ON CONFLICT(relation, tuple_key) DO NOTHING
	`, relation, tupleJSON, key)
	if err != nil {
		return fmt.Errorf("add base fact: %w", err)
	}
	return nil
}

// LoadBaseFacts returns every base fact grouped by relation.
// Rows are ordered deterministically: ORDER BY relation ASC, id ASC, so
// per-relation tuple order is insertion order.
func (s *Store) LoadBaseFacts(ctx context.Context) (map[string][]ir.Tuple, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT relation, tuple
		FROM base_facts
		ORDER BY relation ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query base facts: %w", err)
	}
	defer rows.Close()

	facts := make(map[string][]ir.Tuple)
	for rows.Next() {
		var relation, tupleJSON string
		if err := rows.Scan(&relation, &tupleJSON); err != nil {
			return nil, fmt.Errorf("scan base fact: %w", err)
		}
		t, err := unmarshalTuple(tupleJSON)
		if err != nil {
			return nil, fmt.Errorf("base fact for %s: %w", relation, err)
		}
		facts[relation] = append(facts[relation], t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate base facts: %w", err)
	}

	return facts, nil
}

// ListRuns returns every archived run with row counts.
// Ordered deterministically: ORDER BY created_at ASC, id COLLATE BINARY ASC.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.ruleset_hash, r.engine_version, r.ir_version, r.created_at,
		       (SELECT COUNT(*) FROM derived_facts d WHERE d.run_id = r.id AND d.is_base = 0),
		       (SELECT COUNT(*) FROM deductions x WHERE x.run_id = r.id)
		FROM runs r
		ORDER BY r.created_at ASC, r.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var run RunSummary
		if err := rows.Scan(&run.ID, &run.RuleSetHash, &run.EngineVersion,
			&run.IRVersion, &run.CreatedAt, &run.Derived, &run.Deductions); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// StoredDeduction is one archived ground rule instantiation.
type StoredDeduction struct {
	Relation string
	TupleKey string
	RuleID   string
	Seq      int64
	Hash     string
	Sources  []StoredSource
}

// StoredSource is one consumed tuple of an archived deduction.
type StoredSource struct {
	Relation string
	Tuple    ir.Tuple
	Key      string
}

// ReadDeductions returns a run's deductions in seq order, each with its
// sources in position order.
func (s *Store) ReadDeductions(ctx context.Context, runID string) ([]StoredDeduction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, relation, tuple_key, rule_id, seq, hash
		FROM deductions
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query deductions: %w", err)
	}
	defer rows.Close()

	var deds []StoredDeduction
	var ids []int64
	for rows.Next() {
		var id int64
		var d StoredDeduction
		if err := rows.Scan(&id, &d.Relation, &d.TupleKey, &d.RuleID, &d.Seq, &d.Hash); err != nil {
			return nil, fmt.Errorf("scan deduction: %w", err)
		}
		deds = append(deds, d)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deductions: %w", err)
	}

	for i, id := range ids {
		sources, err := s.readSources(ctx, id)
		if err != nil {
			return nil, err
		}
		deds[i].Sources = sources
	}
	return deds, nil
}

func (s *Store) readSources(ctx context.Context, deductionID int64) ([]StoredSource, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT relation, tuple, tuple_key
		FROM deduction_sources
		WHERE deduction_id = ?
		ORDER BY position ASC
	`, deductionID)
	if err != nil {
		return nil, fmt.Errorf("query deduction sources: %w", err)
	}
	defer rows.Close()

	var sources []StoredSource
	for rows.Next() {
		var src StoredSource
		var tupleJSON string
		if err := rows.Scan(&src.Relation, &tupleJSON, &src.Key); err != nil {
			return nil, fmt.Errorf("scan deduction source: %w", err)
		}
		t, err := unmarshalTuple(tupleJSON)
		if err != nil {
			return nil, fmt.Errorf("deduction source: %w", err)
		}
		src.Tuple = t
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deduction sources: %w", err)
	}
	return sources, nil
}
