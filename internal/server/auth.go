package server

import (
	"crypto/subtle"
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"

	"sefariaproxy/internal/core"
)

// AuthMiddleware requires "Authorization: Bearer <masterKey>" on every
// request. An empty masterKey disables the check.
func AuthMiddleware(masterKey string) echo.MiddlewareFunc {
	return bearerAuth(masterKey, "invalid master key")
}

// AdminAuthMiddleware guards the admin API with its own key. The admin
// routes are not mounted at all when adminKey is empty.
func AdminAuthMiddleware(adminKey string) echo.MiddlewareFunc {
	return bearerAuth(adminKey, "invalid admin key")
}

func bearerAuth(key, mismatch string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if key == "" {
			return next
		}
		return func(c echo.Context) error {
			token, problem := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if problem == "" && subtle.ConstantTimeCompare([]byte(token), []byte(key)) != 1 {
				problem = mismatch
			}
			if problem != "" {
				slog.Debug("request rejected", "path", c.Path(), "reason", problem,
					"request_id", c.Response().Header().Get(echo.HeaderXRequestID))
				authErr := core.NewAuthenticationError("", problem)
				return c.JSON(authErr.HTTPStatusCode(), authErr.ToJSON())
			}
			return next(c)
		}
	}
}

// bearerToken extracts the credential of a Bearer authorization header. The
// scheme is matched case-insensitively. A non-empty problem describes why the
// header is unusable.
func bearerToken(header string) (token, problem string) {
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "invalid authorization header format, expected 'Bearer <token>'"
	}
	return strings.TrimSpace(token), ""
}
