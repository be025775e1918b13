// Package service holds the application use cases: load aggregates, invoke
// their business methods, and commit through a unit of work. Anything
// externally visible (emails, reports) goes through the outbox instead of
// being done here.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/skrasekmichael/teamup/internal/domain"
	"github.com/skrasekmichael/teamup/internal/repository"
	"github.com/skrasekmichael/teamup/internal/uow"
	"github.com/skrasekmichael/teamup/internal/util"
)

type Users struct {
	factory *uow.Factory
	users   repository.UsersRepository
}

func NewUsers(factory *uow.Factory, users repository.UsersRepository) *Users {
	return &Users{factory: factory, users: users}
}

// Register creates a pending account; committing it also queues the
// activation email via the outbox.
func (s *Users) Register(ctx context.Context, email, name string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := domain.NewUser(util.New(), email, name, util.New(), util.New(), time.Now().UTC())
	if err != nil {
		return nil, err
	}

	w := s.factory.New()
	w.Track(u, func(ctx context.Context, tx *sqlx.Tx) error {
		return s.users.Insert(ctx, tx, u)
	})
	if err := w.Commit(ctx); err != nil {
		return nil, err
	}
	return u, nil
}

// Activate verifies the emailed code and flips the account to active.
func (s *Users) Activate(ctx context.Context, userID, code string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := u.Activate(code, time.Now().UTC()); err != nil {
		return err
	}

	w := s.factory.New()
	w.Track(u, func(ctx context.Context, tx *sqlx.Tx) error {
		return s.users.Update(ctx, tx, u)
	})
	return w.Commit(ctx)
}
