// Package integration defines the durably-delivered counterparts of domain
// events. Each event has a stable string type tag stored in the outbox `type`
// column and a JSON payload stored in `data`.
package integration

import "time"

// Event is anything that can be queued via the outbox and published to the
// notification topic.
type Event interface {
	EventName() string
}

// Integration event type tags. These are part of the persisted outbox
// contract; renaming one orphans rows already in the table.
const (
	TypeEmailCreated = "email.created"
	TypeMemberJoined = "team.member_joined"
)

// EmailCreated asks the (external) mailer to send one email. Delivery is
// at-least-once; the mailer dedupes on nothing, so keep bodies idempotent.
type EmailCreated struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (EmailCreated) EventName() string { return TypeEmailCreated }

// MemberJoined announces a completed invitation for downstream consumers.
type MemberJoined struct {
	TeamID   string    `json:"team_id"`
	TeamName string    `json:"team_name"`
	UserID   string    `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

func (MemberJoined) EventName() string { return TypeMemberJoined }
