package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/skrasekmichael/teamup/internal/domain"
)

type EventsRepository interface {
	Insert(ctx context.Context, tx *sqlx.Tx, e *domain.Event) error
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	// UpsertResponse writes one member's RSVP; a repeated reply overwrites
	// the previous row.
	UpsertResponse(ctx context.Context, tx *sqlx.Tx, resp *domain.EventResponse) error
	ListResponses(ctx context.Context, eventID string) ([]domain.EventResponse, error)
}

type EventsRepositoryImpl struct {
	db *sqlx.DB
}

func NewEventsRepository(db *sqlx.DB) *EventsRepositoryImpl {
	return &EventsRepositoryImpl{db: db}
}

var _ EventsRepository = (*EventsRepositoryImpl)(nil)

func (r *EventsRepositoryImpl) withTx(ctx context.Context, tx *sqlx.Tx, fn func(*sqlx.Tx) error) error {
	if tx != nil {
		return fn(tx)
	}
	t, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = t.Rollback() }()
	if err := fn(t); err != nil {
		return err
	}
	return t.Commit()
}

func (r *EventsRepositoryImpl) Insert(ctx context.Context, tx *sqlx.Tx, e *domain.Event) error {
	const q = `
		INSERT INTO events
		    (id, team_id, name, description, starts_at, ends_at, version, created_at, updated_at)
		VALUES
		    (?,  ?,       ?,    ?,           ?,         ?,       1,       ?,          ?)
	`
	return r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, q,
			e.ID, e.TeamID, e.Name, e.Description, e.StartsAt, e.EndsAt, e.CreatedAt, e.UpdatedAt,
		)
		return err
	})
}

func (r *EventsRepositoryImpl) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	var e domain.Event
	err := r.db.GetContext(ctx, &e, `
		SELECT id, team_id, name, description, starts_at, ends_at, version, created_at, updated_at
		  FROM events
		 WHERE id = ? LIMIT 1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EventsRepositoryImpl) UpsertResponse(ctx context.Context, tx *sqlx.Tx, resp *domain.EventResponse) error {
	const q = `
		INSERT INTO event_responses (event_id, user_id, reply, message, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
		    reply = VALUES(reply), message = VALUES(message), updated_at = VALUES(updated_at)
	`
	return r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, q, resp.EventID, resp.UserID, resp.Reply, resp.Message, resp.UpdatedAt)
		return err
	})
}

func (r *EventsRepositoryImpl) ListResponses(ctx context.Context, eventID string) ([]domain.EventResponse, error) {
	var rows []domain.EventResponse
	err := r.db.SelectContext(ctx, &rows, `
		SELECT event_id, user_id, reply, message, updated_at
		  FROM event_responses
		 WHERE event_id = ?
		 ORDER BY updated_at
	`, eventID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
