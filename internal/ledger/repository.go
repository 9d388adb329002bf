package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository defines the interface for ledger data access. The ledger
// is the sole writer of transition entries; analytics and reporting
// read through FullHistory only.
type Repository interface {
	// CloseAndAppend atomically closes the case's open entry and
	// inserts the next one. expectedSeq is the sequence number the
	// caller observed as current; 0 means "no entries yet". If another
	// writer got there first the call fails with
	// ErrConcurrentModification and nothing is written.
	CloseAndAppend(ctx context.Context, caseID uuid.UUID, expectedSeq int, closeAt time.Time, next *TransitionEntry) error

	// LatestEntry returns the entry with the highest sequence number
	// for the case, or nil if the case has no ledger yet.
	LatestEntry(ctx context.Context, caseID uuid.UUID) (*TransitionEntry, error)

	// FullHistory returns all entries for the case ascending by
	// sequence number.
	FullHistory(ctx context.Context, caseID uuid.UUID) ([]*TransitionEntry, error)

	// DeleteCaseEntries removes every entry for the case. Called only
	// by the case store's delete cascade.
	DeleteCaseEntries(ctx context.Context, caseID uuid.UUID) error
}

// PostgresRepository implements Repository using PostgreSQL. The
// close+insert pair runs in a single transaction with an optimistic
// check on the current sequence number, so two racing transitions on
// one case can never both commit.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CloseAndAppend(ctx context.Context, caseID uuid.UUID, expectedSeq int, closeAt time.Time, next *TransitionEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if expectedSeq > 0 {
		res, err := tx.ExecContext(ctx, `
			UPDATE transition_entries
			SET exited_at = $1,
			    duration_seconds = EXTRACT(EPOCH FROM ($1::timestamptz - entered_at))
			WHERE case_id = $2 AND sequence_no = $3 AND exited_at IS NULL
		`, closeAt, caseID, expectedSeq)
		if err != nil {
			return fmt.Errorf("failed to close current entry: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected: %w", err)
		}
		if affected != 1 {
			// Someone else already closed it (or expectedSeq is stale).
			return ErrConcurrentModification
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transition_entries (
			id, case_id, sequence_no, previous_state, new_state,
			actor, entered_at, exited_at, duration_seconds, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, next.ID, next.CaseID, next.SequenceNo, next.PreviousState, next.NewState,
		next.Actor, next.EnteredAt, next.ExitedAt, next.DurationSeconds, next.Notes)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			// Unique (case_id, sequence_no) violated: a concurrent
			// writer inserted the same sequence number first.
			return ErrConcurrentModification
		}
		return fmt.Errorf("failed to insert transition entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transition: %w", err)
	}
	return nil
}

func (r *PostgresRepository) LatestEntry(ctx context.Context, caseID uuid.UUID) (*TransitionEntry, error) {
	var entry TransitionEntry
	err := r.db.GetContext(ctx, &entry, `
		SELECT id, case_id, sequence_no, previous_state, new_state,
		       actor, entered_at, exited_at, duration_seconds, notes
		FROM transition_entries
		WHERE case_id = $1
		ORDER BY sequence_no DESC
		LIMIT 1
	`, caseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest entry: %w", err)
	}
	return &entry, nil
}

func (r *PostgresRepository) FullHistory(ctx context.Context, caseID uuid.UUID) ([]*TransitionEntry, error) {
	entries := []*TransitionEntry{}
	err := r.db.SelectContext(ctx, &entries, `
		SELECT id, case_id, sequence_no, previous_state, new_state,
		       actor, entered_at, exited_at, duration_seconds, notes
		FROM transition_entries
		WHERE case_id = $1
		ORDER BY sequence_no ASC
	`, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get case history: %w", err)
	}
	return entries, nil
}

func (r *PostgresRepository) DeleteCaseEntries(ctx context.Context, caseID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM transition_entries WHERE case_id = $1
	`, caseID)
	if err != nil {
		return fmt.Errorf("failed to delete case entries: %w", err)
	}
	return nil
}
