package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pureline/storefront-api/internal/core/domain"
)

// ctxIdentity extracts the identity attached by the Auth middleware. A
// protected handler reached without one fails closed with 401.
func ctxIdentity(c echo.Context) (*domain.Identity, error) {
	identity, ok := domain.IdentityFrom(c.Request().Context())
	if !ok || identity.ID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized: Invalid token")
	}
	return identity, nil
}

// dataResponse is the success envelope for resource payloads.
type dataResponse struct {
	Data any `json:"data"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// bindAndValidate decodes the request body into req and runs struct
// validation. Failures are client errors.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload").SetInternal(err)
	}
	if err := c.Validate(req); err != nil {
		return domain.Invalid(err.Error())
	}
	return nil
}
