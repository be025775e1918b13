package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/skrasekmichael/teamup/internal/domain"
)

// writeError maps domain outcomes onto HTTP statuses. A concurrency conflict
// is a distinct 409 the client resolves by re-fetching and resubmitting;
// a uniqueness conflict is a 409 the client resolves by changing input.
func writeError(c echo.Context, err error) error {
	var concurrency *domain.ConcurrencyError
	if errors.As(err, &concurrency) {
		return c.JSON(http.StatusConflict, map[string]string{
			"error":       "conflict",
			"description": "the resource was modified concurrently, re-fetch and retry",
		})
	}

	var unique *domain.UniqueConstraintError
	if errors.As(err, &unique) {
		return c.JSON(http.StatusConflict, map[string]string{
			"error":      "duplicate",
			"constraint": unique.Constraint,
		})
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrOwnerImmutable),
		errors.Is(err, domain.ErrWrongRecipient):
		return c.JSON(http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrBadActivation),
		errors.Is(err, domain.ErrAlreadyActive),
		errors.Is(err, domain.ErrAlreadyMember),
		errors.Is(err, domain.ErrNotTeamMember),
		errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, domain.ErrInvalidTimeSpan),
		errors.Is(err, domain.ErrEventStarted),
		errors.Is(err, domain.ErrInvalidReplyType):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	log.Errorf("request failed: %v", err)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
