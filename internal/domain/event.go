package domain

import (
	"strings"
	"time"
)

type ReplyType string

const (
	ReplyYes   ReplyType = "yes"
	ReplyNo    ReplyType = "no"
	ReplyMaybe ReplyType = "maybe"
)

// ParseReplyType normalizes input. Returns (value, true) if valid.
func ParseReplyType(s string) (ReplyType, bool) {
	switch ReplyType(strings.ToLower(strings.TrimSpace(s))) {
	case ReplyYes:
		return ReplyYes, true
	case ReplyNo:
		return ReplyNo, true
	case ReplyMaybe:
		return ReplyMaybe, true
	default:
		return "", false
	}
}

// EventResponse is one member's RSVP, unique per (event, user). Re-submitting
// overwrites the previous reply.
type EventResponse struct {
	EventID   string    `db:"event_id"`
	UserID    string    `db:"user_id"`
	Reply     ReplyType `db:"reply"`
	Message   string    `db:"message"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Event is a scheduled team event members RSVP to.
type Event struct {
	EventBuffer `db:"-"`

	ID          string    `db:"id"`
	TeamID      string    `db:"team_id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	StartsAt    time.Time `db:"starts_at"`
	EndsAt      time.Time `db:"ends_at"`
	Version     int64     `db:"version"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (e *Event) Key() string { return "event:" + e.ID }

func NewEvent(id, teamID, name, description string, startsAt, endsAt, now time.Time) (*Event, error) {
	if !validName(name) {
		return nil, ErrInvalidName
	}
	if !startsAt.After(now) || !endsAt.After(startsAt) {
		return nil, ErrInvalidTimeSpan
	}
	return &Event{
		ID:          id,
		TeamID:      teamID,
		Name:        name,
		Description: description,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Respond records a member's RSVP and raises ResponseCreated. Replies close
// once the event starts.
func (e *Event) Respond(userID string, reply ReplyType, message string, now time.Time) (*EventResponse, error) {
	switch reply {
	case ReplyYes, ReplyNo, ReplyMaybe:
	default:
		return nil, ErrInvalidReplyType
	}
	if !now.Before(e.StartsAt) {
		return nil, ErrEventStarted
	}
	resp := &EventResponse{
		EventID:   e.ID,
		UserID:    userID,
		Reply:     reply,
		Message:   message,
		UpdatedAt: now,
	}
	e.Record(ResponseCreated{Event: e, Response: resp})
	return resp, nil
}
