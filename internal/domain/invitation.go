package domain

import (
	"strings"
	"time"
)

// Invitation invites an email address into a team. It lives until accepted,
// declined, or discarded by the retention job. Unique per (team, email).
type Invitation struct {
	EventBuffer `db:"-"`

	ID        string    `db:"id"`
	TeamID    string    `db:"team_id"`
	TeamName  string    `db:"team_name"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}

func (i *Invitation) Key() string { return "invitation:" + i.ID }

// NewInvitation raises InvitationCreated, which triggers the invitation email.
func NewInvitation(id string, team *Team, email string, now time.Time) *Invitation {
	inv := &Invitation{
		ID:        id,
		TeamID:    team.ID,
		TeamName:  team.Name,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		CreatedAt: now,
	}
	inv.Record(InvitationCreated{Invitation: inv})
	return inv
}

// Accept raises InvitationAccepted. The handler joins the user to the team
// and deletes the invitation in the same unit of work.
func (i *Invitation) Accept(u *User) error {
	if !strings.EqualFold(u.Email, i.Email) {
		return ErrWrongRecipient
	}
	i.Record(InvitationAccepted{Invitation: i, User: u})
	return nil
}

// For reports whether the invitation addresses the given user.
func (i *Invitation) For(u *User) bool {
	return strings.EqualFold(u.Email, i.Email)
}
