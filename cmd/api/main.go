// Command api serves the storefront HTTP API.
//
// @title                      Storefront API
// @version                    1.0
// @description                Catalog, cart, checkout and order management.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pureline/storefront-api/internal/api"
	"github.com/pureline/storefront-api/internal/core/ports"
	"github.com/pureline/storefront-api/internal/core/service"
	"github.com/pureline/storefront-api/internal/infrastructure/config"
	mongodb "github.com/pureline/storefront-api/internal/infrastructure/db/mongo"
	"github.com/pureline/storefront-api/internal/infrastructure/db/postgres"
	redisdb "github.com/pureline/storefront-api/internal/infrastructure/db/redis"
	"github.com/pureline/storefront-api/internal/infrastructure/gateway/razorpay"
	"github.com/pureline/storefront-api/internal/infrastructure/http/handlers"
	"github.com/pureline/storefront-api/internal/infrastructure/invoice"
	"github.com/pureline/storefront-api/internal/infrastructure/messaging"
	"github.com/pureline/storefront-api/internal/infrastructure/queue"
	"github.com/pureline/storefront-api/internal/infrastructure/telemetry"
	"github.com/pureline/storefront-api/pkg/logger"
)

const (
	serviceName     = "storefront-api"
	shutdownTimeout = 10 * time.Second
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx := context.Background()

	cfg, cfgErr := config.Load(ctx)
	level := "info"
	pretty := true
	if cfg != nil {
		level = cfg.LogLevel
		pretty = !cfg.IsProduction()
	}
	log := logger.Init(logger.Options{Level: level, Pretty: pretty, Service: serviceName, Version: version})
	if cfgErr != nil {
		log.Fatal().Err(cfgErr).Msg("invalid configuration")
	}

	shutdownTracing, err := telemetry.InitTracerProvider(ctx, cfg.OTel.Endpoint, cfg.OTel.ServiceName, version)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise tracing")
	}

	// --- Postgres (required) ---
	db, sqlDB, err := postgres.Connect(ctx, postgres.Config{URL: cfg.Postgres.URL}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	healthChecks := map[string]handlers.Check{"postgres": handlers.PostgresCheck(sqlDB)}

	// --- Token and password primitives ---
	tokens, err := service.NewTokenService(cfg.JWTSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build token service")
	}
	gateway, err := razorpay.NewClient(razorpay.Config{
		KeyID:     cfg.Razorpay.KeyID,
		KeySecret: cfg.Razorpay.KeySecret,
		BaseURL:   cfg.Razorpay.BaseURL,
	}, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build payment gateway client")
	}

	products := postgres.NewProductRepository(db)
	checkoutDeps := service.CheckoutDeps{
		Products: products,
		Orders:   postgres.NewOrderRepository(db),
		Gateway:  gateway,
		Currency: cfg.Razorpay.Currency,
	}

	// --- Side channels (optional; the API runs without them) ---
	mongoClient, mongoDB, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database, AppName: serviceName})
	if err != nil {
		log.Warn().Err(err).Msg("mongo unavailable, payment audit trail disabled")
	} else {
		audit := mongodb.NewPaymentAuditRepository(mongoDB)
		if err := audit.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to create payment audit indexes")
		}
		checkoutDeps.Audit = audit
		healthChecks["mongodb"] = handlers.MongoCheck(mongoDB)
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, payment replay cache disabled")
	} else {
		checkoutDeps.Replay = redisdb.NewPaymentGuard(rdb)
		healthChecks["redis"] = handlers.RedisCheck(rdb)
	}

	var (
		publisher  *messaging.OrderPublisher
		dispatcher *queue.Dispatcher
	)
	if brokers := cfg.Kafka.BrokerList(); len(brokers) > 0 {
		publisher = messaging.NewOrderPublisher(brokers, cfg.Kafka.OrderTopic)
		dispatcher = queue.NewDispatcher(cfg.Kafka.Workers, publisher, log)
		dispatcher.Start()
		checkoutDeps.Events = dispatcher
	}

	// --- Services ---
	var (
		authService     ports.AuthService     = service.NewAuthService(postgres.NewUserRepository(db), service.NewBcryptHasher(), tokens, log)
		productService  ports.ProductService  = service.NewProductService(products, log)
		cartService     ports.CartService     = service.NewCartService(postgres.NewCartRepository(db), products, log)
		checkoutService ports.CheckoutService = service.NewCheckoutService(checkoutDeps, log)
		orderService    ports.OrderService    = service.NewOrderService(
			postgres.NewOrderRepository(db),
			invoice.NewPDFRenderer("Pureline", cfg.Razorpay.Currency),
			log,
		)
	)

	e := api.NewRouter(api.Dependencies{
		Auth:         authService,
		Tokens:       tokens,
		Products:     productService,
		Carts:        cartService,
		Checkout:     checkoutService,
		Orders:       orderService,
		HealthChecks: healthChecks,
		Logger:       log,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting storefront api")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown error")
	}
	closeAll(log, []closer{
		{"order events", func() error {
			if dispatcher == nil {
				return nil
			}
			return dispatcher.Stop(shutdownCtx)
		}},
		{"kafka", func() error {
			if publisher == nil {
				return nil
			}
			return publisher.Close()
		}},
		{"redis", func() error {
			if rdb == nil {
				return nil
			}
			return rdb.Close()
		}},
		{"mongo", func() error {
			if mongoClient == nil {
				return nil
			}
			return mongoClient.Disconnect(shutdownCtx)
		}},
		{"postgres", sqlDB.Close},
		{"tracing", func() error { return shutdownTracing(shutdownCtx) }},
	})
	log.Info().Msg("shutdown complete")
}

type closer struct {
	name string
	fn   func() error
}

// closeAll releases resources in order, logging failures.
func closeAll(log zerolog.Logger, closers []closer) {
	for _, c := range closers {
		if err := c.fn(); err != nil {
			log.Error().Err(err).Str("resource", c.name).Msg("close failed")
		}
	}
}
