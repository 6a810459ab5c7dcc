package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/pureline/storefront-api/internal/core/domain"
)

func newRBACContext(identity *domain.Identity) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if identity != nil {
		req = req.WithContext(domain.WithIdentity(req.Context(), identity))
	}
	rec := httptest.NewRecorder()
	return e, e.NewContext(req, rec), rec
}

func TestRequireRole_Allows(t *testing.T) {
	_, c, rec := newRBACContext(&domain.Identity{ID: "admin-1", Role: domain.RoleAdmin})

	called := false
	handler := AdminOnly()(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole_Forbids(t *testing.T) {
	cases := map[string]*domain.Identity{
		"user role":   {ID: "user-1", Role: domain.RoleUser},
		"lowercase":   {ID: "user-2", Role: "admin"},
		"no identity": nil,
	}

	for name, identity := range cases {
		t.Run(name, func(t *testing.T) {
			e, c, rec := newRBACContext(identity)

			handler := AdminOnly()(func(c echo.Context) error {
				t.Fatalf("should not reach next handler")
				return nil
			})

			if err := handler(c); err != nil {
				e.HTTPErrorHandler(err, c)
			}
			if rec.Code != http.StatusForbidden {
				t.Fatalf("expected 403, got %d", rec.Code)
			}
		})
	}
}
