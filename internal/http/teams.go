package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/skrasekmichael/teamup/internal/domain"
	"github.com/skrasekmichael/teamup/internal/http/middleware"
	"github.com/skrasekmichael/teamup/internal/service"
)

type createTeamReq struct {
	Name string `json:"name"`
}

func createTeamHandler(teams *service.Teams) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createTeamReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}
		userID, _ := middleware.UserIDFromCtx(c)

		t, err := teams.Create(c.Request().Context(), userID, strings.TrimSpace(req.Name))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusCreated, map[string]string{"id": t.ID, "name": t.Name})
	}
}

type renameTeamReq struct {
	Name string `json:"name"`
}

func renameTeamHandler(teams *service.Teams) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req renameTeamReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}
		userID, _ := middleware.UserIDFromCtx(c)

		if err := teams.Rename(c.Request().Context(), userID, c.Param("id"), strings.TrimSpace(req.Name)); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

type changeOwnerReq struct {
	NewOwnerID string `json:"new_owner_id"`
}

func changeOwnerHandler(teams *service.Teams) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req changeOwnerReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}
		userID, _ := middleware.UserIDFromCtx(c)

		if err := teams.ChangeOwnership(c.Request().Context(), userID, c.Param("id"), req.NewOwnerID); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

type setRoleReq struct {
	Role string `json:"role"`
}

func setMemberRoleHandler(teams *service.Teams) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req setRoleReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}
		role, ok := domain.ParseTeamRole(req.Role)
		if !ok {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid role"})
		}
		userID, _ := middleware.UserIDFromCtx(c)

		if err := teams.SetMemberRole(c.Request().Context(), userID, c.Param("id"), c.Param("uid"), role); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func removeMemberHandler(teams *service.Teams) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, _ := middleware.UserIDFromCtx(c)

		if err := teams.RemoveMember(c.Request().Context(), userID, c.Param("id"), c.Param("uid")); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
