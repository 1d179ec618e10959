package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/strata/internal/engine"
)

// RunMeta carries the identity of one evaluation run to archive.
// A zero ID is assigned a fresh UUID. CreatedAt defaults to now and is
// informational only - seq is the ordering authority inside a run.
type RunMeta struct {
	ID            string
	RuleSetHash   string
	EngineVersion string
	IRVersion     string
	CreatedAt     time.Time
}

// WriteRun archives a finished evaluation result under a single
// transaction: the run row, every tuple of every relation, and the full
// provenance trail. Returns the run ID.
//
// Re-archiving an identical result under a new ID is fine; writing the
// same run ID twice fails on the primary key.
func (s *Store) WriteRun(ctx context.Context, meta RunMeta, res *engine.Result) (string, error) {
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("write run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, ruleset_hash, engine_version, ir_version, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, meta.ID, meta.RuleSetHash, meta.EngineVersion, meta.IRVersion,
		meta.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("write run: %w", err)
	}

	for _, relation := range res.Relations() {
		for _, f := range res.Relation(relation).Facts() {
			if err := writeFact(ctx, tx, meta.ID, relation, f); err != nil {
				return "", err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("write run: %w", err)
	}
	return meta.ID, nil
}

func writeFact(ctx context.Context, tx execer, runID, relation string, f *engine.Derived) error {
	tupleJSON, err := marshalTuple(f.Tuple)
	if err != nil {
		return fmt.Errorf("write fact %s%s: %w", relation, f.Tuple, err)
	}

	isBase := 0
	if f.Base {
		isBase = 1
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO derived_facts (run_id, relation, tuple, tuple_key, is_base)
		VALUES (?, ?, ?, ?, ?)
	`, runID, relation, tupleJSON, f.Key, isBase)
	if err != nil {
		return fmt.Errorf("write fact %s%s: %w", relation, f.Tuple, err)
	}

	for _, ded := range f.Deductions {
		if err := writeDeduction(ctx, tx, runID, relation, f.Key, ded); err != nil {
			return err
		}
	}
	return nil
}

func writeDeduction(ctx context.Context, tx execer, runID, relation, tupleKey string, ded engine.Deduction) error {
	result, err := tx.ExecContext(ctx, `
		INSERT INTO deductions (run_id, relation, tuple_key, rule_id, seq, hash)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runID, relation, tupleKey, ded.RuleID, ded.Seq, ded.Hash)
	if err != nil {
		return fmt.Errorf("write deduction %s: %w", ded.Hash, err)
	}
	deductionID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("write deduction %s: %w", ded.Hash, err)
	}

	for pos, src := range ded.Sources {
		tupleJSON, err := marshalTuple(src.Tuple)
		if err != nil {
			return fmt.Errorf("write deduction source %d of %s: %w", pos, ded.Hash, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO deduction_sources (deduction_id, position, relation, tuple, tuple_key)
			VALUES (?, ?, ?, ?, ?)
		`, deductionID, pos, src.Relation, tupleJSON, src.Key)
		if err != nil {
			return fmt.Errorf("write deduction source %d of %s: %w", pos, ded.Hash, err)
		}
	}
	return nil
}

// execer is the slice of *sql.Tx the writers need.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
