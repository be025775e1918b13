package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/skrasekmichael/teamup/internal/http/middleware"
	"github.com/skrasekmichael/teamup/internal/service"
)

type inviteReq struct {
	Email string `json:"email"`
}

func inviteHandler(invitations *service.Invitations) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req inviteReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}
		email := strings.TrimSpace(req.Email)
		if email == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "email is required"})
		}
		userID, _ := middleware.UserIDFromCtx(c)

		inv, err := invitations.Invite(c.Request().Context(), userID, c.Param("id"), email)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusCreated, map[string]string{"id": inv.ID, "team_id": inv.TeamID, "email": inv.Email})
	}
}

func acceptInvitationHandler(invitations *service.Invitations) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, _ := middleware.UserIDFromCtx(c)

		if err := invitations.Accept(c.Request().Context(), userID, c.Param("id")); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func declineInvitationHandler(invitations *service.Invitations) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, _ := middleware.UserIDFromCtx(c)

		if err := invitations.Decline(c.Request().Context(), userID, c.Param("id")); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
