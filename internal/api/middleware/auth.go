package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/pureline/storefront-api/internal/api/metrics"
	"github.com/pureline/storefront-api/internal/core/domain"
	"github.com/pureline/storefront-api/internal/core/ports"
	"github.com/pureline/storefront-api/internal/core/service"
)

const bearerPrefix = "Bearer "

// Auth validates the bearer token and attaches the caller identity to the
// request context. Requests without a valid token never reach next.
func Auth(verifier ports.TokenVerifier, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			header := req.Header.Get(echo.HeaderAuthorization)
			if header == "" {
				metrics.AuthFailuresTotal.WithLabelValues("missing_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized: No token provided")
			}

			raw, ok := strings.CutPrefix(header, bearerPrefix)
			if !ok || raw == "" || strings.ContainsAny(raw, " \t") {
				metrics.AuthFailuresTotal.WithLabelValues("bad_format").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized: Invalid token format")
			}

			identity, err := verifier.Verify(raw)
			if err != nil {
				reason := service.ReasonInvalid
				var ve *service.VerificationError
				if errors.As(err, &ve) {
					reason = ve.Reason
				}
				metrics.AuthFailuresTotal.WithLabelValues(reason).Inc()
				log.Debug().
					Err(err).
					Str("reason", reason).
					Str("path", c.Path()).
					Msg("token rejected")
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized: Invalid token")
			}

			c.SetRequest(req.WithContext(domain.WithIdentity(req.Context(), identity)))
			return next(c)
		}
	}
}
