// Package outbox implements the transactional outbox: integration events are
// staged into the same database transaction as the aggregate mutation that
// caused them, then published asynchronously by the dispatcher.
package outbox

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// Record is one durable row in the outbox table, awaiting at-least-once
// delivery. `processed_at != NULL` means the row is done and will never be
// selected again. `next_processing_at == NULL` means the row is parked for
// operator attention (unresolvable type or payload).
type Record struct {
	ID               string     `db:"id"`
	CreatedAt        time.Time  `db:"created_at"`
	Type             string     `db:"type"`
	Data             []byte     `db:"data"`
	ProcessedAt      *time.Time `db:"processed_at"`
	Error            *string    `db:"error"`
	FailCount        int        `db:"fail_count"`
	NextProcessingAt *time.Time `db:"next_processing_at"`
}

// Store is the persistence contract for outbox rows. Implemented by
// repository.OutboxStore on MySQL.
type Store interface {
	// Insert writes a staged record inside the caller's transaction.
	Insert(ctx context.Context, tx *sqlx.Tx, rec Record) error

	// FetchPending selects up to limit unprocessed rows whose
	// next_processing_at is due, oldest creation first.
	FetchPending(ctx context.Context, limit int) ([]Record, error)

	// MarkProcessed stamps processed_at; the row is never selected again.
	MarkProcessed(ctx context.Context, id string) error

	// MarkFailed bumps fail_count, records the cause, and pushes
	// next_processing_at to the given time.
	MarkFailed(ctx context.Context, id string, cause string, nextAttempt time.Time) error

	// MarkTerminal records the cause and clears next_processing_at so the
	// row is parked until an operator intervenes.
	MarkTerminal(ctx context.Context, id string, cause string) error

	// DeleteProcessedBefore removes rows processed before the cutoff.
	DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
