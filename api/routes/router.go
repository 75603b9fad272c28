package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rentwise/rentwise-backend/api/controllers"
	"github.com/rentwise/rentwise-backend/api/middleware"
	"github.com/rentwise/rentwise-backend/internal/accessories"
	"github.com/rentwise/rentwise-backend/internal/auth"
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
	"github.com/rentwise/rentwise-backend/pkg/logger"
	"github.com/rentwise/rentwise-backend/pkg/metrics"
	"github.com/rentwise/rentwise-backend/pkg/redis"
)

// Services groups the domain services mounted by the router. Routes whose service is nil
// fail with an internal error.
type Services struct {
	Auth        auth.Service
	Users       users.Service
	Catalog     catalog.Service
	Accessories accessories.Service
	Inventory   inventory.Service
	Equipment   equipment.Service
	Pricing     pricing.Service
	Rentals     rentals.Service
	KB          kb.Service
}

type pinger interface {
	Ping(ctx context.Context) error
}

type windowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessionManager session.AccessSessionChecker,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.CORS.Origins()),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)
	resetPolicy := middleware.NewAuthRateLimitPolicy(
		"reset",
		cfg.AuthRateLimit.ResetWindow,
		cfg.AuthRateLimit.ResetIPLimit,
		cfg.AuthRateLimit.ResetEmailLimit,
	)

	var (
		cache       pinger
		limiter     windowLimiter
		idempotency redis.IdempotencyStore
	)
	// a nil client must reach the middleware as a nil interface so it is skipped
	if redisClient != nil {
		cache, limiter, idempotency = redisClient, redisClient, redisClient
	}

	requireAuth := middleware.Auth(cfg.JWT, sessionManager, logg)
	optionalAuth := middleware.OptionalAuth(cfg.JWT, sessionManager, logg)
	replay := middleware.Idempotency(idempotency, middleware.DefaultIdempotencyTTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, cache, logg))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, limiter, logg)).Post("/register", controllers.AuthRegister(svc.Auth, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AuthLogin(svc.Auth, logg))
			r.With(middleware.AuthRateLimit(resetPolicy, limiter, logg)).Post("/forgot-password", controllers.AuthForgotPassword(svc.Auth, logg))
			r.Post("/reset-password", controllers.AuthResetPassword(svc.Auth, logg))
			r.Post("/accept-invite", controllers.AuthAcceptInvite(svc.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(svc.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(svc.Auth, logg))
			r.With(requireAuth).Get("/me", controllers.AuthMe(svc.Auth, logg))
			r.Get("/oauth/{provider}", controllers.AuthOAuthStart(svc.Auth, logg))
			r.Get("/oauth/{provider}/callback", controllers.AuthOAuthCallback(svc.Auth, cfg.OAuth.SuccessRedirectURL, logg))
		})

		// public reads; staff tokens unlock inactive rows and drafts
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)

			r.Get("/catalog/categories", controllers.CatalogListCategories(svc.Catalog, logg))
			r.Get("/catalog/products", controllers.CatalogListProducts(svc.Catalog, logg))
			r.Get("/catalog/products/{id}", controllers.CatalogGetProduct(svc.Catalog, logg))
			r.Get("/catalog/products/{id}/accessories", controllers.ProductAccessoriesList(svc.Accessories, logg))

			r.Get("/accessories", controllers.AccessoriesList(svc.Accessories, logg))
			r.Get("/accessories/{id}", controllers.AccessoriesGet(svc.Accessories, logg))

			r.Get("/equipment", controllers.EquipmentList(svc.Equipment, logg))
			r.Get("/equipment/{id}", controllers.EquipmentGet(svc.Equipment, logg))
			r.Get("/equipment/{id}/availability", controllers.EquipmentAvailability(svc.Equipment, logg))

			r.Get("/rentals/availability", controllers.RentalAvailability(svc.Equipment, logg))
			r.Post("/rentals/quote", controllers.RentalsQuote(svc.Rentals, logg))

			r.Get("/kb/categories", controllers.KBListCategories(svc.KB, logg))
			r.Get("/kb/articles", controllers.KBListArticles(svc.KB, logg))
			r.Get("/kb/articles/{slug}", controllers.KBGetArticle(svc.KB, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Patch("/users/me", controllers.UsersUpdateMe(svc.Users, logg))
			r.Post("/users/me/password", controllers.UsersChangePassword(svc.Users, logg))

			r.Get("/rentals", controllers.RentalsList(svc.Rentals, logg))
			r.Get("/rentals/{id}", controllers.RentalsGet(svc.Rentals, logg))
			r.With(replay).Post("/rentals", controllers.RentalsCreate(svc.Rentals, logg))
			r.With(replay).Post("/rentals/enhanced", controllers.RentalsCreateEnhanced(svc.Rentals, logg))
			r.Post("/rentals/{id}/cancel", controllers.RentalsCancel(svc.Rentals, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireStaff(logg))

				r.Get("/users", controllers.UsersList(svc.Users, logg))
				r.Get("/users/{id}", controllers.UsersGet(svc.Users, logg))

				r.Patch("/rentals/{id}/status", controllers.RentalsUpdateStatus(svc.Rentals, logg))

				r.Get("/inventory", controllers.InventoryList(svc.Inventory, logg))
				r.Get("/inventory/summary", controllers.InventorySummary(svc.Inventory, logg))
				r.Get("/inventory/{id}", controllers.InventoryGet(svc.Inventory, logg))
				r.Post("/inventory", controllers.InventoryCreate(svc.Inventory, logg))
				r.Post("/inventory/bulk", controllers.InventoryBulkCreate(svc.Inventory, logg))
				r.Patch("/inventory/{id}", controllers.InventoryUpdate(svc.Inventory, logg))
				r.Patch("/inventory/{id}/status", controllers.InventoryUpdateStatus(svc.Inventory, logg))
				r.Delete("/inventory/{id}", controllers.InventoryDelete(svc.Inventory, logg))

				r.Post("/kb/categories", controllers.KBCreateCategory(svc.KB, logg))
				r.Patch("/kb/categories/{id}", controllers.KBUpdateCategory(svc.KB, logg))
				r.Delete("/kb/categories/{id}", controllers.KBDeleteCategory(svc.KB, logg))
				r.Post("/kb/articles", controllers.KBCreateArticle(svc.KB, logg))
				r.Patch("/kb/articles/{id}", controllers.KBUpdateArticle(svc.KB, logg))
				r.Delete("/kb/articles/{id}", controllers.KBDeleteArticle(svc.KB, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(logg))

				r.Post("/users/invite", controllers.UsersInvite(svc.Users, logg))
				r.Patch("/users/{id}", controllers.UsersUpdate(svc.Users, logg))
				r.Delete("/users/{id}", controllers.UsersDeactivate(svc.Users, logg))

				r.Post("/catalog/categories", controllers.CatalogCreateCategory(svc.Catalog, logg))
				r.Patch("/catalog/categories/{id}", controllers.CatalogUpdateCategory(svc.Catalog, logg))
				r.Delete("/catalog/categories/{id}", controllers.CatalogDeleteCategory(svc.Catalog, logg))
				r.Post("/catalog/products", controllers.CatalogCreateProduct(svc.Catalog, logg))
				r.Patch("/catalog/products/{id}", controllers.CatalogUpdateProduct(svc.Catalog, logg))
				r.Delete("/catalog/products/{id}", controllers.CatalogDeleteProduct(svc.Catalog, logg))
				r.Post("/catalog/products/{id}/colors", controllers.CatalogAddColor(svc.Catalog, logg))
				r.Patch("/catalog/colors/{colorId}", controllers.CatalogUpdateColor(svc.Catalog, logg))
				r.Delete("/catalog/colors/{colorId}", controllers.CatalogDeleteColor(svc.Catalog, logg))
				r.Put("/catalog/products/{id}/accessories", controllers.ProductAccessoriesReplace(svc.Accessories, logg))
				r.Delete("/catalog/products/{id}/accessories/{accessoryId}", controllers.ProductAccessoriesRemove(svc.Accessories, logg))

				r.Post("/accessories", controllers.AccessoriesCreate(svc.Accessories, logg))
				r.Patch("/accessories/{id}", controllers.AccessoriesUpdate(svc.Accessories, logg))
				r.Delete("/accessories/{id}", controllers.AccessoriesDelete(svc.Accessories, logg))
				r.Post("/accessories/{id}/colors", controllers.AccessoriesAddColor(svc.Accessories, logg))
				r.Delete("/accessories/colors/{colorId}", controllers.AccessoriesDeleteColor(svc.Accessories, logg))

				r.Get("/pricing/modifiers", controllers.PricingListModifiers(svc.Pricing, logg))
				r.Post("/pricing/modifiers", controllers.PricingCreateModifier(svc.Pricing, logg))
				r.Patch("/pricing/modifiers/{id}", controllers.PricingUpdateModifier(svc.Pricing, logg))
				r.Delete("/pricing/modifiers/{id}", controllers.PricingDeleteModifier(svc.Pricing, logg))
			})
		})
	})

	return r
}
