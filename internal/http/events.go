package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/skrasekmichael/teamup/internal/domain"
	"github.com/skrasekmichael/teamup/internal/http/middleware"
	"github.com/skrasekmichael/teamup/internal/repository"
	"github.com/skrasekmichael/teamup/internal/service"
)

type createEventReq struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
}

func createEventHandler(events *service.Events) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createEventReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}
		userID, _ := middleware.UserIDFromCtx(c)

		e, err := events.Create(
			c.Request().Context(),
			userID,
			c.Param("id"),
			strings.TrimSpace(req.Name),
			req.Description,
			req.StartsAt,
			req.EndsAt,
		)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusCreated, map[string]any{
			"id":        e.ID,
			"team_id":   e.TeamID,
			"name":      e.Name,
			"starts_at": e.StartsAt,
			"ends_at":   e.EndsAt,
		})
	}
}

type rsvpReq struct {
	Reply   string `json:"reply"`
	Message string `json:"message"`
}

func rsvpHandler(events *service.Events) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req rsvpReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}
		reply, ok := domain.ParseReplyType(req.Reply)
		if !ok {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid reply"})
		}
		userID, _ := middleware.UserIDFromCtx(c)

		resp, err := events.Respond(c.Request().Context(), userID, c.Param("id"), reply, req.Message)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]any{
			"event_id":   resp.EventID,
			"user_id":    resp.UserID,
			"reply":      resp.Reply,
			"updated_at": resp.UpdatedAt,
		})
	}
}

func listResponsesHandler(events repository.EventsRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		responses, err := events.ListResponses(c.Request().Context(), c.Param("id"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]any{"responses": responses})
	}
}
