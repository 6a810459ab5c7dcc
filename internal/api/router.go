package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pureline/storefront-api/internal/api/handler"
	"github.com/pureline/storefront-api/internal/api/middleware"
	"github.com/pureline/storefront-api/internal/core/ports"
	"github.com/pureline/storefront-api/internal/infrastructure/http/handlers"

	_ "github.com/pureline/storefront-api/docs"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Auth     ports.AuthService
	Tokens   ports.TokenVerifier
	Products ports.ProductService
	Carts    ports.CartService
	Checkout ports.CheckoutService
	Orders   ports.OrderService

	// HealthChecks are probed by GET /health/ready, keyed by dependency name.
	HealthChecks map[string]handlers.Check

	Logger zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echo.WrapMiddleware(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "storefront-api")
	}))
	e.Use(requestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddleware("storefront"))

	// --- Health probes and ops endpoints (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.HealthChecks)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	authenticated := middleware.Auth(deps.Tokens, deps.Logger)
	adminOnly := middleware.AdminOnly()

	api := e.Group("/api")

	// --- Auth ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	api.POST("/auth/signup", authHandler.Signup)
	api.POST("/auth/login", authHandler.Login)

	// --- Catalog ---
	productHandler := handler.NewProductHandler(deps.Products)
	products := api.Group("/products")
	products.GET("", productHandler.List)
	products.GET("/:id", productHandler.Get)
	products.POST("", productHandler.Create, authenticated, adminOnly)
	products.PUT("/:id", productHandler.Update, authenticated, adminOnly)
	products.DELETE("/:id", productHandler.Delete, authenticated, adminOnly)

	// --- Cart ---
	cartHandler := handler.NewCartHandler(deps.Carts)
	cart := api.Group("/cart", authenticated)
	cart.GET("", cartHandler.Get)
	cart.POST("", cartHandler.Add)
	cart.PUT("/items/:itemId", cartHandler.UpdateItem)
	cart.DELETE("/items/:itemId", cartHandler.RemoveItem)

	// --- Orders and payments ---
	orderHandler := handler.NewOrderHandler(deps.Checkout, deps.Orders)
	orders := api.Group("/orders", authenticated)
	orders.POST("/buy-now", orderHandler.BuyNow)
	orders.POST("/verify-payment", orderHandler.VerifyPayment)
	orders.GET("", orderHandler.List)
	orders.GET("/admin/all", orderHandler.ListAll, adminOnly)
	orders.GET("/:id/invoice", orderHandler.Invoice)

	return e
}

// requestLogger writes one structured access log line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= http.StatusInternalServerError {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
