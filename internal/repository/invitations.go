package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/skrasekmichael/teamup/internal/domain"
)

type InvitationsRepository interface {
	Insert(ctx context.Context, tx *sqlx.Tx, inv *domain.Invitation) error
	Delete(ctx context.Context, tx *sqlx.Tx, id string) error
	GetByID(ctx context.Context, id string) (*domain.Invitation, error)
	// DeleteCreatedBefore expires stale invitations (retention).
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type InvitationsRepositoryImpl struct {
	db *sqlx.DB
}

func NewInvitationsRepository(db *sqlx.DB) *InvitationsRepositoryImpl {
	return &InvitationsRepositoryImpl{db: db}
}

var _ InvitationsRepository = (*InvitationsRepositoryImpl)(nil)

func (r *InvitationsRepositoryImpl) withTx(ctx context.Context, tx *sqlx.Tx, fn func(*sqlx.Tx) error) error {
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

// Insert relies on uq_invitations_team_email for the one-invitation-per-
// recipient rule; violations surface as UniqueConstraintError at the
// unit-of-work boundary.
func (r *InvitationsRepositoryImpl) Insert(ctx context.Context, tx *sqlx.Tx, inv *domain.Invitation) error {
	const q = `
		INSERT INTO invitations (id, team_id, team_name, email, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	return r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, q, inv.ID, inv.TeamID, inv.TeamName, inv.Email, inv.CreatedAt)
		return err
	})
}

func (r *InvitationsRepositoryImpl) Delete(ctx context.Context, tx *sqlx.Tx, id string) error {
	return r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM invitations WHERE id = ?`, id)
		return err
	})
}

func (r *InvitationsRepositoryImpl) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	var inv domain.Invitation
	err := r.db.GetContext(ctx, &inv, `
		SELECT id, team_id, team_name, email, created_at
		  FROM invitations
		 WHERE id = ? LIMIT 1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InvitationsRepositoryImpl) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM invitations WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
