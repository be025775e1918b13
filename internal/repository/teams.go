package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/skrasekmichael/teamup/internal/domain"
)

// TeamsRepository persists the team aggregate: the teams row plus its
// team_members rows, always together.
type TeamsRepository interface {
	Insert(ctx context.Context, tx *sqlx.Tx, t *domain.Team) error
	Update(ctx context.Context, tx *sqlx.Tx, t *domain.Team) error
	GetByID(ctx context.Context, id string) (*domain.Team, error)
}

type TeamsRepositoryImpl struct {
	db *sqlx.DB
}

func NewTeamsRepository(db *sqlx.DB) *TeamsRepositoryImpl {
	return &TeamsRepositoryImpl{db: db}
}

var _ TeamsRepository = (*TeamsRepositoryImpl)(nil)

func (r *TeamsRepositoryImpl) withTx(ctx context.Context, tx *sqlx.Tx, fn func(*sqlx.Tx) error) error {
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

func (r *TeamsRepositoryImpl) Insert(ctx context.Context, tx *sqlx.Tx, t *domain.Team) error {
	return r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO teams (id, name, owner_id, version, created_at, updated_at)
			VALUES (?, ?, ?, 1, ?, ?)
		`, t.ID, t.Name, t.OwnerID, t.CreatedAt, t.UpdatedAt)
		if err != nil {
			return err
		}
		return insertMembers(ctx, tx, t.Members)
	})
}

// Update rewrites the team row (version-checked) and replaces the member
// rows. Zero rows on the version-checked UPDATE means a concurrent writer
// won and the whole transaction rolls back.
func (r *TeamsRepositoryImpl) Update(ctx context.Context, tx *sqlx.Tx, t *domain.Team) error {
	return r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE teams
			   SET name = ?, owner_id = ?, version = version + 1, updated_at = ?
			 WHERE id = ? AND version = ?
		`, t.Name, t.OwnerID, t.UpdatedAt, t.ID, t.Version)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return &domain.ConcurrencyError{Entity: "team", Key: t.ID}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM team_members WHERE team_id = ?`, t.ID); err != nil {
			return err
		}
		return insertMembers(ctx, tx, t.Members)
	})
}

func insertMembers(ctx context.Context, tx *sqlx.Tx, members []domain.TeamMember) error {
	const q = `
		INSERT INTO team_members (team_id, user_id, role, created_at)
		VALUES (?, ?, ?, ?)
	`
	for _, m := range members {
		if _, err := tx.ExecContext(ctx, q, m.TeamID, m.UserID, m.Role, m.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *TeamsRepositoryImpl) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	var t domain.Team
	err := r.db.GetContext(ctx, &t, `
		SELECT id, name, owner_id, version, created_at, updated_at
		  FROM teams
		 WHERE id = ? LIMIT 1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	err = r.db.SelectContext(ctx, &t.Members, `
		SELECT team_id, user_id, role, created_at
		  FROM team_members
		 WHERE team_id = ?
		 ORDER BY created_at, user_id
	`, id)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
