package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/skrasekmichael/teamup/internal/repository"
)

func listNotificationsHandler(reports repository.ReportsRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit, err := strconv.Atoi(c.QueryParam("limit"))
		if err != nil || limit <= 0 || limit > 1000 {
			limit = 100
		}
		offset, err := strconv.Atoi(c.QueryParam("offset"))
		if err != nil || offset < 0 {
			offset = 0
		}

		rows, err := reports.List(c.Request().Context(), c.QueryParam("type"), limit, offset)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]any{"notifications": rows})
	}
}
