package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/skrasekmichael/teamup/internal/domain"
)

// UsersRepository defines persistence for the users table.
type UsersRepository interface {
	Insert(ctx context.Context, tx *sqlx.Tx, u *domain.User) error
	Update(ctx context.Context, tx *sqlx.Tx, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByAccessToken(ctx context.Context, token string) (*domain.User, error)
	// DeletePendingBefore discards unactivated accounts created before the
	// cutoff (retention).
	DeletePendingBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type UsersRepositoryImpl struct {
	db *sqlx.DB
}

func NewUsersRepository(db *sqlx.DB) *UsersRepositoryImpl {
	return &UsersRepositoryImpl{db: db}
}

var _ UsersRepository = (*UsersRepositoryImpl)(nil)

func (r *UsersRepositoryImpl) withTx(ctx context.Context, tx *sqlx.Tx, fn func(*sqlx.Tx) error) error {
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

func (r *UsersRepositoryImpl) Insert(ctx context.Context, tx *sqlx.Tx, u *domain.User) error {
	const q = `
		INSERT INTO users
		    (id, email, name, status, activation_code, access_token, version, created_at, updated_at)
		VALUES
		    (?,  ?,     ?,    ?,      ?,               ?,            1,       ?,          ?)
	`
	return r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, q,
			u.ID, u.Email, u.Name, u.Status, u.ActivationCode, u.AccessToken, u.CreatedAt, u.UpdatedAt,
		)
		return err
	})
}

// Update writes the row guarded by the version read at load time. Zero rows
// touched means a concurrent writer won.
func (r *UsersRepositoryImpl) Update(ctx context.Context, tx *sqlx.Tx, u *domain.User) error {
	const q = `
		UPDATE users
		   SET email = ?, name = ?, status = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?
	`
	return r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, q, u.Email, u.Name, u.Status, u.UpdatedAt, u.ID, u.Version)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return &domain.ConcurrencyError{Entity: "user", Key: u.ID}
		}
		return nil
	})
}

func (r *UsersRepositoryImpl) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getBy(ctx, `id = ?`, id)
}

func (r *UsersRepositoryImpl) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, `email = ?`, email)
}

func (r *UsersRepositoryImpl) GetByAccessToken(ctx context.Context, token string) (*domain.User, error) {
	return r.getBy(ctx, `access_token = ?`, token)
}

func (r *UsersRepositoryImpl) getBy(ctx context.Context, cond string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.db.GetContext(ctx, &u, `
		SELECT id, email, name, status, activation_code, access_token, version, created_at, updated_at
		  FROM users
		 WHERE `+cond+` LIMIT 1
	`, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UsersRepositoryImpl) DeletePendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE status = ? AND created_at < ?`,
		domain.UserStatusPending, cutoff,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
