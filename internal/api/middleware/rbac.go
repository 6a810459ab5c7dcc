package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pureline/storefront-api/internal/api/metrics"
	"github.com/pureline/storefront-api/internal/core/domain"
)

// RequireRole admits only callers whose identity carries one of allowedRoles.
// It must run after Auth; a request without an identity is forbidden.
func RequireRole(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := domain.IdentityFrom(c.Request().Context())
			if !ok {
				metrics.AuthFailuresTotal.WithLabelValues("forbidden").Inc()
				return echo.NewHTTPError(http.StatusForbidden, "Forbidden: Access denied")
			}
			if _, ok := allowed[identity.Role]; !ok {
				metrics.AuthFailuresTotal.WithLabelValues("forbidden").Inc()
				return echo.NewHTTPError(http.StatusForbidden, "Forbidden: Access denied")
			}
			return next(c)
		}
	}
}

// AdminOnly is RequireRole(domain.RoleAdmin).
func AdminOnly() echo.MiddlewareFunc {
	return RequireRole(domain.RoleAdmin)
}
