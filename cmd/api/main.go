package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rentwise/rentwise-backend/api/routes"
	"github.com/rentwise/rentwise-backend/internal/accessories"
	"github.com/rentwise/rentwise-backend/internal/auth"
	"github.com/rentwise/rentwise-backend/internal/availability"
	"github.com/rentwise/rentwise-backend/internal/catalog"
	"github.com/rentwise/rentwise-backend/internal/equipment"
	"github.com/rentwise/rentwise-backend/internal/inventory"
	"github.com/rentwise/rentwise-backend/internal/kb"
	"github.com/rentwise/rentwise-backend/internal/pricing"
	"github.com/rentwise/rentwise-backend/internal/rentals"
	"github.com/rentwise/rentwise-backend/internal/users"
	"github.com/rentwise/rentwise-backend/pkg/auth/session"
	"github.com/rentwise/rentwise-backend/pkg/config"
	"github.com/rentwise/rentwise-backend/pkg/db"
	"github.com/rentwise/rentwise-backend/pkg/instance"
	"github.com/rentwise/rentwise-backend/pkg/logger"
	"github.com/rentwise/rentwise-backend/pkg/mailer"
	"github.com/rentwise/rentwise-backend/pkg/metrics"
	"github.com/rentwise/rentwise-backend/pkg/migrate"
	"github.com/rentwise/rentwise-backend/pkg/oauth"
	"github.com/rentwise/rentwise-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.LogConsole(),
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}
	oneTimeTokens, err := session.NewOneTimeTokens(redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create one-time token store", err)
		os.Exit(1)
	}

	mail := mailer.New(cfg.Mailgun, logg)
	if !cfg.Mailgun.Enabled() {
		logg.Warn(context.Background(), "mailgun not configured, outbound mail is logged only")
	}

	services, err := buildServices(cfg, logg, dbClient, sessionManager, oneTimeTokens, mail)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, httpMetrics, registry, *services),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutting down api server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "graceful shutdown failed", err)
	}
	logg.Info(ctx, "api server stopped")
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	sessionManager *session.Manager,
	tokens *session.OneTimeTokens,
	mail *mailer.Mailer,
) (*routes.Services, error) {
	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)

	authService, err := auth.NewService(auth.ServiceParams{
		Users:          userRepo,
		Tx:             dbClient,
		SessionManager: sessionManager,
		Tokens:         tokens,
		Mailer:         mail,
		Providers:      oauth.NewRegistry(cfg.OAuth),
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		TokensConfig:   cfg.Tokens,
		OAuthConfig:    cfg.OAuth,
		FrontendURL:    cfg.App.FrontendURL,
		Logger:         logg,
	})
	if err != nil {
		return nil, err
	}

	usersService, err := users.NewService(users.ServiceParams{
		Repo:        userRepo,
		Tx:          dbClient,
		Tokens:      tokens,
		Mailer:      mail,
		Password:    cfg.Password,
		TokenTTLs:   cfg.Tokens,
		FrontendURL: cfg.App.FrontendURL,
		Logger:      logg,
	})
	if err != nil {
		return nil, err
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(conn))
	if err != nil {
		return nil, err
	}
	accessoriesService, err := accessories.NewService(accessories.NewRepository(conn), dbClient)
	if err != nil {
		return nil, err
	}
	inventoryService, err := inventory.NewService(inventory.NewRepository(conn), dbClient)
	if err != nil {
		return nil, err
	}

	availabilityRepo := availability.NewRepository(conn)
	equipmentService, err := equipment.NewService(catalogService, availabilityRepo)
	if err != nil {
		return nil, err
	}

	pricingService, err := pricing.NewService(pricing.NewRepository(conn))
	if err != nil {
		return nil, err
	}
	rentalsService, err := rentals.NewService(rentals.ServiceParams{
		Repo:         rentals.NewRepository(conn),
		Availability: availabilityRepo,
		Pricing:      pricingService,
		Tx:           dbClient,
		Logger:       logg,
	})
	if err != nil {
		return nil, err
	}

	kbService, err := kb.NewService(kb.NewRepository(conn), dbClient)
	if err != nil {
		return nil, err
	}

	return &routes.Services{
		Auth:        authService,
		Users:       usersService,
		Catalog:     catalogService,
		Accessories: accessoriesService,
		Inventory:   inventoryService,
		Equipment:   equipmentService,
		Pricing:     pricingService,
		Rentals:     rentalsService,
		KB:          kbService,
	}, nil
}
