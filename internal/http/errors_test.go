package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skrasekmichael/teamup/internal/domain"
)

func statusFor(t *testing.T, err error) int {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, writeError(c, err))
	return rec.Code
}

func TestWriteError_ConcurrencyConflict(t *testing.T) {
	err := &domain.ConcurrencyError{Entity: "team", Key: "T1"}
	assert.Equal(t, http.StatusConflict, statusFor(t, err))
}

func TestWriteError_UniqueConstraint(t *testing.T) {
	err := fmt.Errorf("commit: %w", &domain.UniqueConstraintError{Constraint: "uq_users_email"})

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, writeError(c, err))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "uq_users_email")
}

func TestWriteError_StatusMapping(t *testing.T) {
	cases := map[error]int{
		domain.ErrNotFound:        http.StatusNotFound,
		domain.ErrForbidden:       http.StatusForbidden,
		domain.ErrOwnerImmutable:  http.StatusForbidden,
		domain.ErrWrongRecipient:  http.StatusForbidden,
		domain.ErrInvalidName:     http.StatusBadRequest,
		domain.ErrBadActivation:   http.StatusBadRequest,
		domain.ErrAlreadyMember:   http.StatusBadRequest,
		domain.ErrNotTeamMember:   http.StatusBadRequest,
		domain.ErrInvalidTimeSpan: http.StatusBadRequest,
		domain.ErrEventStarted:    http.StatusBadRequest,
	}
	for err, want := range cases {
		assert.Equal(t, want, statusFor(t, err), err.Error())
	}
}

func TestWriteError_UnknownErrorIsInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(t, errors.New("db gone")))
}
