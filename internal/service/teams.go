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

type Teams struct {
	factory *uow.Factory
	teams   repository.TeamsRepository
}

func NewTeams(factory *uow.Factory, teams repository.TeamsRepository) *Teams {
	return &Teams{factory: factory, teams: teams}
}

func (s *Teams) Create(ctx context.Context, ownerID, name string) (*domain.Team, error) {
	t, err := domain.NewTeam(util.New(), name, ownerID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	w := s.factory.New()
	w.Track(t, func(ctx context.Context, tx *sqlx.Tx) error {
		return s.teams.Insert(ctx, tx, t)
	})
	if err := w.Commit(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Teams) Rename(ctx context.Context, actorID, teamID, name string) error {
	return s.mutate(ctx, teamID, func(t *domain.Team) error {
		return t.Rename(actorID, name, time.Now().UTC())
	})
}

// ChangeOwnership hands the team to another member; the committed event
// queues a notification email for the new owner.
func (s *Teams) ChangeOwnership(ctx context.Context, actorID, teamID, newOwnerID string) error {
	return s.mutate(ctx, teamID, func(t *domain.Team) error {
		return t.ChangeOwnership(actorID, newOwnerID, time.Now().UTC())
	})
}

func (s *Teams) SetMemberRole(ctx context.Context, actorID, teamID, userID string, role domain.TeamRole) error {
	return s.mutate(ctx, teamID, func(t *domain.Team) error {
		return t.SetMemberRole(actorID, userID, role, time.Now().UTC())
	})
}

func (s *Teams) RemoveMember(ctx context.Context, actorID, teamID, userID string) error {
	return s.mutate(ctx, teamID, func(t *domain.Team) error {
		return t.RemoveMember(actorID, userID, time.Now().UTC())
	})
}

// mutate loads the team, applies the business method, and commits the
// version-checked update.
func (s *Teams) mutate(ctx context.Context, teamID string, fn func(*domain.Team) error) error {
	t, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return err
	}
	if err := fn(t); err != nil {
		return err
	}

	w := s.factory.New()
	w.Track(t, func(ctx context.Context, tx *sqlx.Tx) error {
		return s.teams.Update(ctx, tx, t)
	})
	return w.Commit(ctx)
}
