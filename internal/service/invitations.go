package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/skrasekmichael/teamup/internal/domain"
	"github.com/skrasekmichael/teamup/internal/repository"
	"github.com/skrasekmichael/teamup/internal/uow"
	"github.com/skrasekmichael/teamup/internal/util"
)

type Invitations struct {
	factory     *uow.Factory
	teams       repository.TeamsRepository
	invitations repository.InvitationsRepository
	users       repository.UsersRepository
}

func NewInvitations(
	factory *uow.Factory,
	teams repository.TeamsRepository,
	invitations repository.InvitationsRepository,
	users repository.UsersRepository,
) *Invitations {
	return &Invitations{factory: factory, teams: teams, invitations: invitations, users: users}
}

// Invite issues an invitation to an email address. Only owners and admins
// may invite; a duplicate per (team, email) surfaces as a uniqueness
// conflict. Committing queues the invitation email.
func (s *Invitations) Invite(ctx context.Context, actorID, teamID, email string) (*domain.Invitation, error) {
	t, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !t.CanManage(actorID) {
		return nil, domain.ErrForbidden
	}

	inv := domain.NewInvitation(util.New(), t, email, time.Now().UTC())

	w := s.factory.New()
	w.Track(inv, func(ctx context.Context, tx *sqlx.Tx) error {
		return s.invitations.Insert(ctx, tx, inv)
	})
	if err := w.Commit(ctx); err != nil {
		return nil, err
	}
	return inv, nil
}

// Accept joins the invited user to the team. The aggregate raises
// InvitationAccepted; the handler tracks the team mutation and the
// invitation deletion, so everything commits in one transaction.
func (s *Invitations) Accept(ctx context.Context, userID, invitationID string) error {
	inv, err := s.invitations.GetByID(ctx, invitationID)
	if err != nil {
		return err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := inv.Accept(u); err != nil {
		return err
	}

	w := s.factory.New()
	w.Track(inv, nil) // persisted by the InvitationAccepted handler
	return w.Commit(ctx)
}

// Decline removes the invitation without joining.
func (s *Invitations) Decline(ctx context.Context, userID, invitationID string) error {
	inv, err := s.invitations.GetByID(ctx, invitationID)
	if err != nil {
		return err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !inv.For(u) {
		return domain.ErrForbidden
	}

	w := s.factory.New()
	w.Track(inv, func(ctx context.Context, tx *sqlx.Tx) error {
		return s.invitations.Delete(ctx, tx, inv.ID)
	})
	return w.Commit(ctx)
}
