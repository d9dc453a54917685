package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/inventorybot/internal/core/domain"
	"github.com/vietddude/inventorybot/internal/infra/storage"
)

// DeadLetterRepo implements storage.DeadLetterRepository using PostgreSQL.
type DeadLetterRepo struct {
	db *DB
}

var (
	_ storage.DeadLetterRepository = (*DeadLetterRepo)(nil)
	_ storage.DeadLetterPruner     = (*DeadLetterRepo)(nil)
)

// NewDeadLetterRepo creates a new PostgreSQL dead-letter repository.
func NewDeadLetterRepo(db *DB) *DeadLetterRepo {
	return &DeadLetterRepo{db: db}
}

const insertDeadLetter = `
	INSERT INTO dead_letters (id, worker_id, batch_id, reason, retries, created_at)
	VALUES (:id, :worker_id, :batch_id, :reason, :retries, :created_at)
`

// Append inserts a dead letter.
func (r *DeadLetterRepo) Append(ctx context.Context, entry domain.DeadLetterEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if entry.Reason == "" {
		entry.Reason = domain.ReasonRetriesExhausted
	}

	if _, err := r.db.NamedExecContext(ctx, insertDeadLetter, entry); err != nil {
		return fmt.Errorf("failed to add dead letter: %w", err)
	}
	return nil
}

// List returns the dead letters of a worker in insertion order.
func (r *DeadLetterRepo) List(ctx context.Context, workerID int) ([]domain.DeadLetterEntry, error) {
	query := `
		SELECT id, worker_id, batch_id, reason, retries, created_at
		FROM dead_letters
		WHERE worker_id = $1
		ORDER BY seq ASC
	`

	var entries []domain.DeadLetterEntry
	if err := r.db.SelectContext(ctx, &entries, query, workerID); err != nil {
		return nil, fmt.Errorf("failed to list dead letters: %w", err)
	}
	return entries, nil
}

// Count returns the number of dead letters of a worker.
func (r *DeadLetterRepo) Count(ctx context.Context, workerID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM dead_letters WHERE worker_id = $1`, workerID)
	if err != nil {
		return 0, fmt.Errorf("failed to count dead letters: %w", err)
	}
	return count, nil
}

// DeleteOlderThan removes dead letters created before threshold.
func (r *DeadLetterRepo) DeleteOlderThan(ctx context.Context, threshold time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM dead_letters WHERE created_at < $1`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to delete dead letters: %w", err)
	}
	return res.RowsAffected()
}
