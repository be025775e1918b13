package domain

import (
	"errors"
	"fmt"
)

// Business-rule violations surfaced to the API layer.
var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("operation not allowed")
	ErrInvalidName      = errors.New("name must be 3-50 characters")
	ErrAlreadyActive    = errors.New("account is already active")
	ErrBadActivation    = errors.New("invalid activation code")
	ErrNotTeamMember    = errors.New("user is not a member of the team")
	ErrAlreadyMember    = errors.New("user is already a member of the team")
	ErrOwnerImmutable   = errors.New("team owner role cannot be changed")
	ErrInvalidRole      = errors.New("invalid team role")
	ErrWrongRecipient   = errors.New("invitation was issued to a different email")
	ErrInvalidTimeSpan  = errors.New("event must start in the future and end after it starts")
	ErrEventStarted     = errors.New("event has already started")
	ErrInvalidReplyType = errors.New("invalid reply type")
)

// ConcurrencyError reports an optimistic-lock mismatch: the row version read
// at load time no longer matched at write time. Recoverable by re-fetch and
// resubmit; never retried automatically.
type ConcurrencyError struct {
	Entity string
	Key    string
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("concurrent modification of %s %s", e.Entity, e.Key)
}

// UniqueConstraintError reports a duplicate-key write, e.g. a second
// invitation for the same team and email. Recoverable by correcting input.
type UniqueConstraintError struct {
	Constraint string
}

func (e *UniqueConstraintError) Error() string {
	return fmt.Sprintf("unique constraint violated: %s", e.Constraint)
}
