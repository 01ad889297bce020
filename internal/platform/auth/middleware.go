package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	userIDKey   = "user_id"
	userNameKey = "user_name"
	userRoleKey = "user_role"
)

// Middleware validates the Authorization bearer token on every request and
// stores the caller's identity in the echo context.
func Middleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			claims, err := ParseToken(secret, strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			c.Set(userIDKey, claims.UserID)
			c.Set(userNameKey, claims.Name)
			c.Set(userRoleKey, claims.Role)
			return next(c)
		}
	}
}

// DevAuthMiddleware is a permissive middleware for development: requests
// without a token run as an admin user.
func DevAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Get(userIDKey) == nil {
				c.Set(userIDKey, int64(1))
				c.Set(userNameKey, "dev-user")
				c.Set(userRoleKey, "admin")
			}
			return next(c)
		}
	}
}

// RequireRole restricts a route group to the given roles. Admin always
// passes.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := CurrentUserRole(c)
			if role == "admin" {
				return next(c)
			}
			for _, required := range roles {
				if role == required {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

// CurrentUserID returns the authenticated user's id, or 0 if the request is
// unauthenticated.
func CurrentUserID(c echo.Context) int64 {
	id, _ := c.Get(userIDKey).(int64)
	return id
}

// CurrentUserName returns the authenticated user's display name.
func CurrentUserName(c echo.Context) string {
	name, _ := c.Get(userNameKey).(string)
	return name
}

// CurrentUserRole returns the authenticated user's role.
func CurrentUserRole(c echo.Context) string {
	role, _ := c.Get(userRoleKey).(string)
	return role
}
