package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/skrasekmichael/teamup/internal/service"
)

type registerReq struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func registerUserHandler(users *service.Users) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req registerReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		req.Email = strings.TrimSpace(req.Email)
		req.Name = strings.TrimSpace(req.Name)
		if req.Email == "" || !strings.Contains(req.Email, "@") {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid email"})
		}

		u, err := users.Register(c.Request().Context(), req.Email, req.Name)
		if err != nil {
			return writeError(c, err)
		}

		// The access token is returned once; activation happens via the
		// emailed code.
		return c.JSON(http.StatusCreated, map[string]string{
			"id":           u.ID,
			"email":        u.Email,
			"access_token": u.AccessToken,
		})
	}
}

type activateReq struct {
	Code string `json:"code"`
}

func activateUserHandler(users *service.Users) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req activateReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		if err := users.Activate(c.Request().Context(), c.Param("id"), strings.TrimSpace(req.Code)); err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "active"})
	}
}
