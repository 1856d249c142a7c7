package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/shirtforge-backend/api/controllers"
	"github.com/angelmondragon/shirtforge-backend/api/middleware"
	"github.com/angelmondragon/shirtforge-backend/internal/catalog"
	"github.com/angelmondragon/shirtforge-backend/internal/designorders"
	"github.com/angelmondragon/shirtforge-backend/internal/inventory"
	"github.com/angelmondragon/shirtforge-backend/pkg/config"
	"github.com/angelmondragon/shirtforge-backend/pkg/db"
	"github.com/angelmondragon/shirtforge-backend/pkg/enums"
	"github.com/angelmondragon/shirtforge-backend/pkg/logger"
	"github.com/angelmondragon/shirtforge-backend/pkg/redis"
)

// NewRouter wires the storefront designer API and the staff admin API.
// redisClient may be nil, in which case caching, idempotent replay and rate
// limiting are all off. metricsHandler may be nil.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	designService designorders.Service,
	catalogService catalog.Service,
	inventoryService inventory.Service,
	metricsHandler http.Handler,
) http.Handler {
	var (
		cachePinger redis.Pinger
		idemStore   redis.IdempotencyStore
		limitStore  middleware.RateLimitStore
	)
	if redisClient != nil {
		cachePinger = redisClient
		idemStore = redisClient
		limitStore = redisClient
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	quotePolicy := middleware.NewRateLimitPolicy("quote", cfg.RateLimit.Window, cfg.RateLimit.QuotePerIP)
	finalizePolicy := middleware.NewRateLimitPolicy("finalize", cfg.RateLimit.Window, cfg.RateLimit.FinalizePerIP)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, cachePinger))
	})
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	idempotency := middleware.Idempotency(idemStore, cfg.Idempotency.FinalizeTTL, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/designer", func(r chi.Router) {
			r.Post("/placement", controllers.DesignerPlacement(designService, logg))
			r.Route("/products/{productID}", func(r chi.Router) {
				r.Get("/", controllers.DesignerCatalog(designService, logg))
				r.Group(func(r chi.Router) {
					r.Use(middleware.RateLimit(quotePolicy, limitStore, logg))
					r.Post("/quote", controllers.DesignerQuote(designService, logg))
					r.Post("/validate", controllers.DesignerValidate(designService, logg))
				})
			})
		})

		r.Route("/design-orders", func(r chi.Router) {
			r.Use(idempotency)
			r.With(middleware.RateLimit(finalizePolicy, limitStore, logg)).Post("/", controllers.FinalizeDesignOrder(designService, logg))
			r.Get("/", controllers.ListDesignOrders(designService, logg))
			r.Get("/{orderID}", controllers.GetDesignOrder(designService, logg))
		})

		r.Route("/admin/products/{productID}", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireRole(logg, enums.StaffRoleAdmin, enums.StaffRoleCatalogManager, enums.StaffRoleViewer))
			r.Use(idempotency)

			r.Get("/config", controllers.AdminGetConfig(catalogService, logg))
			r.Get("/config/template", controllers.AdminConfigTemplate(catalogService, logg))
			r.Get("/inventory", controllers.AdminListInventory(inventoryService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCatalogEditor(logg))
				r.Put("/config", controllers.AdminSaveConfig(catalogService, logg))
				r.Put("/inventory", controllers.AdminReplaceInventory(inventoryService, logg))
				r.Post("/inventory/restock", controllers.AdminRestock(inventoryService, logg))
			})
		})
	})

	return r
}
