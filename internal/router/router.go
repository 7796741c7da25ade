package router

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/tableside/api/internal/config"
	"github.com/tableside/api/internal/database"
	"github.com/tableside/api/internal/enum"
	"github.com/tableside/api/internal/events"
	"github.com/tableside/api/internal/handler"
	mw "github.com/tableside/api/internal/middleware"
	"github.com/tableside/api/internal/service"
	"github.com/tableside/api/internal/storage"
	"github.com/tableside/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Customer routes are public; staff routes require a token and a role.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub, bus events.Publisher, files storage.Store) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(mw.RequestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	if cfg.StorageMode == config.StorageModeLocal && strings.HasPrefix(cfg.PublicUploadURL, "/") {
		prefix := cfg.PublicUploadURL + "/"
		r.Handle(prefix+"*", http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.UploadDir))))
	}

	// Services
	orderService := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}, bus, cfg.TaxRate)
	billingService := service.NewBillingService(pool, func(db database.DBTX) service.BillingStore {
		return database.New(db)
	}, bus)
	tableService := service.NewTableService(queries, bus)

	authenticate := mw.Authenticate(cfg.JWTSecret)
	adminOnly := mw.RequireRole(enum.UserRoleAdmin)

	r.Route("/api", func(r chi.Router) {
		authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
		authHandler.RegisterRoutes(r)
		r.With(authenticate).Get("/auth/me", authHandler.Me)

		tableHandler := handler.NewTableHandler(tableService, cfg.FrontendURL)
		r.Route("/tables", func(r chi.Router) {
			tableHandler.RegisterPublicRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(mw.RequireRole(enum.UserRoleWaiter, enum.UserRoleCashier))
				tableHandler.RegisterStaffRoutes(r)
			})
			r.Group(func(r chi.Router) {
				r.Use(authenticate, adminOnly)
				tableHandler.RegisterAdminRoutes(r)
			})
		})

		orderHandler := handler.NewOrderHandler(orderService)
		r.Route("/orders", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(mw.OptionalAuth(cfg.JWTSecret))
				orderHandler.RegisterPublicRoutes(r)
			})
			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(mw.RequireRole(enum.UserRoleWaiter, enum.UserRoleKitchen, enum.UserRoleCashier))
				orderHandler.RegisterStaffRoutes(r)
			})
		})

		billHandler := handler.NewBillHandler(billingService)
		r.Route("/bills", func(r chi.Router) {
			r.Use(authenticate)
			r.Use(mw.RequireRole(enum.UserRoleWaiter, enum.UserRoleCashier))
			billHandler.RegisterRoutes(r)
		})

		menuHandler := handler.NewMenuHandler(queries, files)
		r.Route("/menu", func(r chi.Router) {
			menuHandler.RegisterPublicRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(authenticate, adminOnly)
				menuHandler.RegisterAdminRoutes(r)
			})
		})

		userHandler := handler.NewUserHandler(queries)
		r.Route("/users", func(r chi.Router) {
			r.Use(authenticate, adminOnly)
			userHandler.RegisterRoutes(r)
		})

		dashboardHandler := handler.NewDashboardHandler(queries, hub)
		r.Route("/admin", func(r chi.Router) {
			r.Use(authenticate, adminOnly)
			dashboardHandler.RegisterRoutes(r)
		})
	})

	log.Info("router initialized with all handlers")
	return r
}
