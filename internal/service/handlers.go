package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/skrasekmichael/teamup/internal/domain"
	"github.com/skrasekmichael/teamup/internal/events"
	"github.com/skrasekmichael/teamup/internal/integration"
	"github.com/skrasekmichael/teamup/internal/outbox"
	"github.com/skrasekmichael/teamup/internal/repository"
)

// EventHandlers reacts to domain events inside the unit of work. A handler
// may mutate other aggregates (tracked into the same unit of work, picked up
// by the next dispatch pass) and queue integration events through the outbox
// writer; it never touches the database directly.
type EventHandlers struct {
	teams       repository.TeamsRepository
	users       repository.UsersRepository
	invitations repository.InvitationsRepository
	outbox      *outbox.Manager
}

func NewEventHandlers(
	teams repository.TeamsRepository,
	users repository.UsersRepository,
	invitations repository.InvitationsRepository,
	manager *outbox.Manager,
) *EventHandlers {
	return &EventHandlers{teams: teams, users: users, invitations: invitations, outbox: manager}
}

// RegisterAll wires every handler into the dispatcher. Called once at
// startup.
func (h *EventHandlers) RegisterAll(d *events.Dispatcher) {
	d.Register(domain.EventUserCreated, h.onUserCreated)
	d.Register(domain.EventInvitationCreated, h.onInvitationCreated)
	d.Register(domain.EventInvitationAccepted, h.onInvitationAccepted)
	d.Register(domain.EventTeamMemberAdded, h.onTeamMemberAdded)
	d.Register(domain.EventTeamOwnershipChanged, h.onTeamOwnershipChanged)
	d.Register(domain.EventResponseCreated, h.onResponseCreated)
}

func (h *EventHandlers) onUserCreated(ctx context.Context, w events.Work, ev domain.DomainEvent) error {
	e := ev.(domain.UserCreated)
	return h.outbox.Enqueue(w, integration.EmailCreated{
		To:      e.User.Email,
		Subject: "Activate your TeamUp account",
		Body:    fmt.Sprintf("Hi %s, confirm your account with code %s.", e.User.Name, e.User.ActivationCode),
	})
}

func (h *EventHandlers) onInvitationCreated(ctx context.Context, w events.Work, ev domain.DomainEvent) error {
	e := ev.(domain.InvitationCreated)
	return h.outbox.Enqueue(w, integration.EmailCreated{
		To:      e.Invitation.Email,
		Subject: fmt.Sprintf("You are invited to join %s", e.Invitation.TeamName),
		Body:    fmt.Sprintf("Accept invitation %s to join team %s.", e.Invitation.ID, e.Invitation.TeamName),
	})
}

// onInvitationAccepted joins the user to the team and deletes the
// invitation. AddMember raises TeamMemberAdded, which the next dispatch pass
// handles; both mutations commit with the accepting request's transaction.
func (h *EventHandlers) onInvitationAccepted(ctx context.Context, w events.Work, ev domain.DomainEvent) error {
	e := ev.(domain.InvitationAccepted)

	t, err := h.teams.GetByID(ctx, e.Invitation.TeamID)
	if err != nil {
		return err
	}
	if err := t.AddMember(e.User.ID, domain.RoleMember, time.Now().UTC()); err != nil {
		return err
	}

	w.Track(t, func(ctx context.Context, tx *sqlx.Tx) error {
		return h.teams.Update(ctx, tx, t)
	})
	invitationID := e.Invitation.ID
	w.Track(e.Invitation, func(ctx context.Context, tx *sqlx.Tx) error {
		return h.invitations.Delete(ctx, tx, invitationID)
	})
	return nil
}

func (h *EventHandlers) onTeamMemberAdded(ctx context.Context, w events.Work, ev domain.DomainEvent) error {
	e := ev.(domain.TeamMemberAdded)

	u, err := h.users.GetByID(ctx, e.UserID)
	if err != nil {
		return err
	}
	if err := h.outbox.Enqueue(w, integration.EmailCreated{
		To:      u.Email,
		Subject: fmt.Sprintf("Welcome to %s", e.Team.Name),
		Body:    fmt.Sprintf("Hi %s, you are now a member of team %s.", u.Name, e.Team.Name),
	}); err != nil {
		return err
	}
	return h.outbox.Enqueue(w, integration.MemberJoined{
		TeamID:   e.Team.ID,
		TeamName: e.Team.Name,
		UserID:   u.ID,
		JoinedAt: time.Now().UTC(),
	})
}

func (h *EventHandlers) onTeamOwnershipChanged(ctx context.Context, w events.Work, ev domain.DomainEvent) error {
	e := ev.(domain.TeamOwnershipChanged)

	u, err := h.users.GetByID(ctx, e.NewOwnerID)
	if err != nil {
		return err
	}
	return h.outbox.Enqueue(w, integration.EmailCreated{
		To:      u.Email,
		Subject: fmt.Sprintf("You now own %s", e.Team.Name),
		Body:    fmt.Sprintf("Hi %s, ownership of team %s was transferred to you.", u.Name, e.Team.Name),
	})
}

func (h *EventHandlers) onResponseCreated(ctx context.Context, w events.Work, ev domain.DomainEvent) error {
	e := ev.(domain.ResponseCreated)

	t, err := h.teams.GetByID(ctx, e.Event.TeamID)
	if err != nil {
		return err
	}
	owner, err := h.users.GetByID(ctx, t.OwnerID)
	if err != nil {
		return err
	}
	responder, err := h.users.GetByID(ctx, e.Response.UserID)
	if err != nil {
		return err
	}
	return h.outbox.Enqueue(w, integration.EmailCreated{
		To:      owner.Email,
		Subject: fmt.Sprintf("RSVP for %s", e.Event.Name),
		Body:    fmt.Sprintf("%s replied %q to event %s.", responder.Name, e.Response.Reply, e.Event.Name),
	})
}
