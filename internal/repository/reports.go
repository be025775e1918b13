package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// NotificationRow is one published integration event as stored in ClickHouse
// for operational reporting.
type NotificationRow struct {
	ID        string    `db:"id"`
	Type      string    `db:"type"`
	Payload   string    `db:"payload"`
	CreatedAt time.Time `db:"created_at"`
}

// ReportsRepository reads and writes the ClickHouse notifications table.
type ReportsRepository interface {
	EnsureSchema(ctx context.Context) error
	Insert(ctx context.Context, row NotificationRow) error
	List(ctx context.Context, typ string, limit, offset int) ([]NotificationRow, error)
}

type reportsRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewReportsRepository(ch *sqlx.DB) ReportsRepository {
	return &reportsRepository{ch: ch}
}

func (r *reportsRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.ch.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS teamup.notifications (
			id         String,
			type       LowCardinality(String),
			payload    String,
			created_at DateTime
		) ENGINE = MergeTree()
		ORDER BY (type, created_at)
	`)
	return err
}

func (r *reportsRepository) Insert(ctx context.Context, row NotificationRow) error {
	_, err := r.ch.ExecContext(ctx, `
		INSERT INTO teamup.notifications (id, type, payload, created_at)
		VALUES (?, ?, ?, ?)
	`, row.ID, row.Type, row.Payload, row.CreatedAt)
	return err
}

func (r *reportsRepository) List(ctx context.Context, typ string, limit, offset int) ([]NotificationRow, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := `
		SELECT id, type, payload, created_at
		FROM teamup.notifications
		WHERE 1 = 1
	`
	args := []any{}

	if typ != "" {
		q += " AND type = ?"
		args = append(args, typ)
	}

	q += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []NotificationRow
	if err := r.ch.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
