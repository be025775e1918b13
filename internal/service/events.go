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

type Events struct {
	factory *uow.Factory
	teams   repository.TeamsRepository
	events  repository.EventsRepository
}

func NewEvents(factory *uow.Factory, teams repository.TeamsRepository, events repository.EventsRepository) *Events {
	return &Events{factory: factory, teams: teams, events: events}
}

func (s *Events) Create(ctx context.Context, actorID, teamID, name, description string, startsAt, endsAt time.Time) (*domain.Event, error) {
	t, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !t.CanManage(actorID) {
		return nil, domain.ErrForbidden
	}

	e, err := domain.NewEvent(util.New(), teamID, name, description, startsAt, endsAt, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	w := s.factory.New()
	w.Track(e, func(ctx context.Context, tx *sqlx.Tx) error {
		return s.events.Insert(ctx, tx, e)
	})
	if err := w.Commit(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// Respond records the member's RSVP; committing queues a notification for
// the team owner.
func (s *Events) Respond(ctx context.Context, userID, eventID string, reply domain.ReplyType, message string) (*domain.EventResponse, error) {
	e, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	t, err := s.teams.GetByID(ctx, e.TeamID)
	if err != nil {
		return nil, err
	}
	if _, ok := t.MemberRole(userID); !ok {
		return nil, domain.ErrNotTeamMember
	}

	resp, err := e.Respond(userID, reply, message, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	w := s.factory.New()
	w.Track(e, func(ctx context.Context, tx *sqlx.Tx) error {
		return s.events.UpsertResponse(ctx, tx, resp)
	})
	if err := w.Commit(ctx); err != nil {
		return nil, err
	}
	return resp, nil
}
