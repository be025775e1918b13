package domain

import "time"

type UserStatus string

const (
	UserStatusPending UserStatus = "pending"
	UserStatusActive  UserStatus = "active"
)

// User is the account aggregate. Unverified accounts stay in status=pending
// until activated with the emailed code; the retention job discards the
// abandoned ones.
type User struct {
	EventBuffer `db:"-"`

	ID             string     `db:"id"`
	Email          string     `db:"email"`
	Name           string     `db:"name"`
	Status         UserStatus `db:"status"`
	ActivationCode string     `db:"activation_code"`
	AccessToken    string     `db:"access_token"`
	Version        int64      `db:"version"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

func (u *User) Key() string { return "user:" + u.ID }

// NewUser registers a pending account and raises UserCreated, which triggers
// the activation email.
func NewUser(id, email, name, activationCode, accessToken string, now time.Time) (*User, error) {
	if !validName(name) {
		return nil, ErrInvalidName
	}
	u := &User{
		ID:             id,
		Email:          email,
		Name:           name,
		Status:         UserStatusPending,
		ActivationCode: activationCode,
		AccessToken:    accessToken,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	u.Record(UserCreated{User: u})
	return u, nil
}

// Activate flips the account to active when the emailed code matches.
func (u *User) Activate(code string, now time.Time) error {
	if u.Status == UserStatusActive {
		return ErrAlreadyActive
	}
	if code == "" || code != u.ActivationCode {
		return ErrBadActivation
	}
	u.Status = UserStatusActive
	u.UpdatedAt = now
	return nil
}

func validName(name string) bool {
	return len(name) >= 3 && len(name) <= 50
}
