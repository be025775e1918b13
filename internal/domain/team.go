package domain

import "time"

type TeamRole string

const (
	RoleOwner  TeamRole = "owner"
	RoleAdmin  TeamRole = "admin"
	RoleMember TeamRole = "member"
)

func ParseTeamRole(s string) (TeamRole, bool) {
	switch TeamRole(s) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleMember:
		return RoleMember, true
	default:
		return "", false
	}
}

type TeamMember struct {
	TeamID    string    `db:"team_id"`
	UserID    string    `db:"user_id"`
	Role      TeamRole  `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

// Team is the membership aggregate: the team row plus its member rows form
// one consistency boundary and are persisted together.
type Team struct {
	EventBuffer `db:"-"`

	ID        string    `db:"id"`
	Name      string    `db:"name"`
	OwnerID   string    `db:"owner_id"`
	Version   int64     `db:"version"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	Members []TeamMember `db:"-"`
}

func (t *Team) Key() string { return "team:" + t.ID }

func NewTeam(id, name, ownerID string, now time.Time) (*Team, error) {
	if !validName(name) {
		return nil, ErrInvalidName
	}
	t := &Team{
		ID:        id,
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.Members = append(t.Members, TeamMember{TeamID: id, UserID: ownerID, Role: RoleOwner, CreatedAt: now})
	return t, nil
}

// MemberRole returns the role of the given user, or false if not a member.
func (t *Team) MemberRole(userID string) (TeamRole, bool) {
	for _, m := range t.Members {
		if m.UserID == userID {
			return m.Role, true
		}
	}
	return "", false
}

// CanManage reports whether the user may invite members and create events.
func (t *Team) CanManage(userID string) bool {
	role, ok := t.MemberRole(userID)
	return ok && (role == RoleOwner || role == RoleAdmin)
}

// AddMember joins a user to the team and raises TeamMemberAdded.
func (t *Team) AddMember(userID string, role TeamRole, now time.Time) error {
	if _, ok := t.MemberRole(userID); ok {
		return ErrAlreadyMember
	}
	t.Members = append(t.Members, TeamMember{TeamID: t.ID, UserID: userID, Role: role, CreatedAt: now})
	t.UpdatedAt = now
	t.Record(TeamMemberAdded{Team: t, UserID: userID})
	return nil
}

// RemoveMember drops a member. The owner has to transfer ownership first.
func (t *Team) RemoveMember(initiatorID, userID string, now time.Time) error {
	if initiatorID != userID && !t.CanManage(initiatorID) {
		return ErrForbidden
	}
	if userID == t.OwnerID {
		return ErrOwnerImmutable
	}
	for i, m := range t.Members {
		if m.UserID == userID {
			t.Members = append(t.Members[:i], t.Members[i+1:]...)
			t.UpdatedAt = now
			return nil
		}
	}
	return ErrNotTeamMember
}

// SetMemberRole changes a member's role. Only the owner may do that, and the
// owner's own role stays fixed.
func (t *Team) SetMemberRole(initiatorID, userID string, role TeamRole, now time.Time) error {
	if initiatorID != t.OwnerID {
		return ErrForbidden
	}
	if userID == t.OwnerID {
		return ErrOwnerImmutable
	}
	if role != RoleAdmin && role != RoleMember {
		return ErrInvalidRole
	}
	for i, m := range t.Members {
		if m.UserID == userID {
			t.Members[i].Role = role
			t.UpdatedAt = now
			return nil
		}
	}
	return ErrNotTeamMember
}

// ChangeOwnership hands the team to another member. The previous owner is
// demoted to admin. Raises TeamOwnershipChanged.
func (t *Team) ChangeOwnership(initiatorID, newOwnerID string, now time.Time) error {
	if initiatorID != t.OwnerID {
		return ErrForbidden
	}
	if newOwnerID == t.OwnerID {
		return nil
	}
	if _, ok := t.MemberRole(newOwnerID); !ok {
		return ErrNotTeamMember
	}
	prev := t.OwnerID
	for i, m := range t.Members {
		switch m.UserID {
		case prev:
			t.Members[i].Role = RoleAdmin
		case newOwnerID:
			t.Members[i].Role = RoleOwner
		}
	}
	t.OwnerID = newOwnerID
	t.UpdatedAt = now
	t.Record(TeamOwnershipChanged{Team: t, PreviousOwnerID: prev, NewOwnerID: newOwnerID})
	return nil
}

// Rename changes the team name.
func (t *Team) Rename(initiatorID, name string, now time.Time) error {
	if !t.CanManage(initiatorID) {
		return ErrForbidden
	}
	if !validName(name) {
		return ErrInvalidName
	}
	t.Name = name
	t.UpdatedAt = now
	return nil
}
