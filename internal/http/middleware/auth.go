package middleware

import (
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v4"
	"github.com/skrasekmichael/teamup/internal/domain"
	"github.com/skrasekmichael/teamup/internal/repository"
)

// UserIDFromCtx extracts the authenticated user id set by AccessTokenMiddleware.
func UserIDFromCtx(c echo.Context) (string, bool) {
	v := c.Get("user_id")
	id, ok := v.(string)
	return id, ok && id != ""
}

// AccessTokenMiddleware authenticates requests using a bearer access token.
// Only activated accounts pass.
func AccessTokenMiddleware(users repository.UsersRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := strings.TrimSpace(strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer"))
			if token == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing access token"})
			}
			u, err := users.GetByAccessToken(c.Request().Context(), token)
			if err == domain.ErrNotFound {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid access token"})
			}
			if err != nil {
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "auth error"})
			}
			if u.Status != domain.UserStatusActive {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "account not activated"})
			}
			c.Set("user_id", u.ID)
			return next(c)
		}
	}
}
