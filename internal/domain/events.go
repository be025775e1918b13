package domain

// DomainEvent is an in-memory notification that a business-meaningful state
// change occurred on an aggregate. Events are never persisted directly; they
// are drained and handled before the owning unit of work commits.
type DomainEvent interface {
	EventName() string
}

// EventBuffer holds the ordered, not-yet-dispatched domain events of one
// aggregate. Embed it by value; access is single-threaded per unit of work,
// so no locking.
type EventBuffer struct {
	pending []DomainEvent
}

// Record appends an event to the tail of the buffer.
func (b *EventBuffer) Record(ev DomainEvent) {
	b.pending = append(b.pending, ev)
}

// Drain returns all pending events in insertion order and empties the buffer.
func (b *EventBuffer) Drain() []DomainEvent {
	evs := b.pending
	b.pending = nil
	return evs
}

// HasPending reports whether any recorded event has not been drained yet.
func (b *EventBuffer) HasPending() bool {
	return len(b.pending) > 0
}

// Aggregate is implemented by every entity the unit of work can track.
type Aggregate interface {
	// Key identifies the aggregate inside one unit of work, e.g. "team:<id>".
	Key() string
	HasPending() bool
	Drain() []DomainEvent
}

// Domain event names.
const (
	EventUserCreated          = "user.created"
	EventInvitationCreated    = "invitation.created"
	EventInvitationAccepted   = "invitation.accepted"
	EventTeamMemberAdded      = "team.member_added"
	EventTeamOwnershipChanged = "team.ownership_changed"
	EventResponseCreated      = "event.response_created"
)

type UserCreated struct {
	User *User
}

func (UserCreated) EventName() string { return EventUserCreated }

type InvitationCreated struct {
	Invitation *Invitation
}

func (InvitationCreated) EventName() string { return EventInvitationCreated }

type InvitationAccepted struct {
	Invitation *Invitation
	User       *User
}

func (InvitationAccepted) EventName() string { return EventInvitationAccepted }

type TeamMemberAdded struct {
	Team   *Team
	UserID string
}

func (TeamMemberAdded) EventName() string { return EventTeamMemberAdded }

type TeamOwnershipChanged struct {
	Team            *Team
	PreviousOwnerID string
	NewOwnerID      string
}

func (TeamOwnershipChanged) EventName() string { return EventTeamOwnershipChanged }

type ResponseCreated struct {
	Event    *Event
	Response *EventResponse
}

func (ResponseCreated) EventName() string { return EventResponseCreated }
