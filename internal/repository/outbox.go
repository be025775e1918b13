package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/skrasekmichael/teamup/internal/outbox"
)

// OutboxStore is the MySQL implementation of outbox.Store.
type OutboxStore struct {
	db *sqlx.DB
}

func NewOutboxStore(db *sqlx.DB) *OutboxStore {
	return &OutboxStore{db: db}
}

var _ outbox.Store = (*OutboxStore)(nil)

// Insert writes a staged record inside the unit-of-work transaction. Never
// opens its own transaction: a record outside the triggering mutation's TX
// would defeat the outbox pattern.
func (s *OutboxStore) Insert(ctx context.Context, tx *sqlx.Tx, rec outbox.Record) error {
	const q = `
		INSERT INTO outbox (id, created_at, type, data, processed_at, error, fail_count, next_processing_at)
		VALUES (?, ?, ?, ?, NULL, NULL, 0, ?)
	`
	_, err := tx.ExecContext(ctx, q, rec.ID, rec.CreatedAt, rec.Type, rec.Data, rec.NextProcessingAt)
	return err
}

// FetchPending selects due rows, oldest-eligible first. Rows parked with
// next_processing_at = NULL are never returned.
func (s *OutboxStore) FetchPending(ctx context.Context, limit int) ([]outbox.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	var recs []outbox.Record
	err := s.db.SelectContext(ctx, &recs, `
		SELECT id, created_at, type, data, processed_at, error, fail_count, next_processing_at
		  FROM outbox
		 WHERE processed_at IS NULL
		   AND next_processing_at IS NOT NULL
		   AND next_processing_at <= ?
		 ORDER BY created_at
		 LIMIT ?
	`, time.Now().UTC(), limit)
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (s *OutboxStore) MarkProcessed(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE outbox SET processed_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	return err
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id string, cause string, nextAttempt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE outbox
		   SET fail_count = fail_count + 1, error = ?, next_processing_at = ?
		 WHERE id = ?
	`, truncateCause(cause), nextAttempt, id)
	return err
}

// MarkTerminal parks the row: error recorded, never selected again,
// processed_at left NULL so the failure stays visible.
func (s *OutboxStore) MarkTerminal(ctx context.Context, id string, cause string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE outbox
		   SET error = ?, next_processing_at = NULL
		 WHERE id = ?
	`, truncateCause(cause), id)
	return err
}

func (s *OutboxStore) DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM outbox WHERE processed_at IS NOT NULL AND processed_at < ?`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// truncateCause keeps error messages inside the column limit.
func truncateCause(cause string) string {
	const max = 1000
	if len(cause) > max {
		return cause[:max]
	}
	return cause
}
