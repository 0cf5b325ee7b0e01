package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/agency-ledger/api/controllers"
	"github.com/angelmondragon/agency-ledger/api/middleware"
	"github.com/angelmondragon/agency-ledger/internal/auth"
	"github.com/angelmondragon/agency-ledger/internal/catalog"
	"github.com/angelmondragon/agency-ledger/internal/ledger"
	"github.com/angelmondragon/agency-ledger/internal/orders"
	"github.com/angelmondragon/agency-ledger/internal/reports"
	"github.com/angelmondragon/agency-ledger/internal/retailers"
	"github.com/angelmondragon/agency-ledger/pkg/config"
	"github.com/angelmondragon/agency-ledger/pkg/db"
	"github.com/angelmondragon/agency-ledger/pkg/enums"
	"github.com/angelmondragon/agency-ledger/pkg/logger"
	"github.com/angelmondragon/agency-ledger/pkg/redis"
)

// Services bundles everything the HTTP layer dispatches to.
type Services struct {
	Auth      auth.Service
	Register  auth.RegisterService
	Catalog   catalog.Service
	Orders    orders.Service
	Ledger    ledger.Service
	Retailers retailers.Service
	Reports   reports.Service
}

// Infra carries the optional infrastructure the router consults. A nil Redis
// disables idempotency replay and auth rate limiting.
type Infra struct {
	DB       db.Pinger
	Redis    *redis.Client
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svcs Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	// Interface values stay untyped-nil without Redis so the middlewares see
	// a nil store and step aside.
	var (
		redisPinger redis.Pinger
		idempotency redis.IdempotencyStore
		rateStore   middleware.RateLimitStore
	)
	if infra.Redis != nil {
		redisPinger = infra.Redis
		idempotency = infra.Redis
		rateStore = infra.Redis
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginMobileLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterMobileLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, infra.DB, redisPinger))
	})
	if infra.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(infra.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, rateStore, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
			r.With(
				middleware.AuthRateLimit(registerPolicy, rateStore, logg),
				middleware.Idempotency(idempotency, cfg.Idempotency.TTL, logg),
			).Post("/register", controllers.AuthRegister(svcs.Register, logg))
			if !cfg.App.IsProd() {
				r.Post("/admin", controllers.AdminRegister(svcs.Register, cfg, logg))
			}
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(idempotency, cfg.Idempotency.TTL, logg))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ListProducts(svcs.Catalog, logg))
				r.Get("/{productId}", controllers.GetProduct(svcs.Catalog, logg))
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
					r.Post("/", controllers.CreateProduct(svcs.Catalog, logg))
					r.Put("/{productId}", controllers.UpdateProduct(svcs.Catalog, logg))
					r.Patch("/{productId}/status", controllers.SetProductStatus(svcs.Catalog, logg))
					r.Delete("/{productId}", controllers.DeleteProduct(svcs.Catalog, logg))
				})
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", controllers.PlaceOrder(svcs.Orders, logg))
				r.Get("/me", controllers.MyOrders(svcs.Reports, logg))
			})

			r.Route("/payments", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
				r.Get("/", controllers.ListPayments(svcs.Ledger, logg))
				r.Post("/", controllers.RecordPayment(svcs.Ledger, logg))
				r.Post("/batch", controllers.BatchRecordPayments(svcs.Ledger, logg))
				r.Post("/advance", controllers.DrawFromAdvance(svcs.Ledger, logg))
			})

			r.Route("/retailers", func(r chi.Router) {
				r.Get("/me", controllers.RetailerMe(svcs.Retailers, logg))
				r.Put("/me", controllers.UpdateRetailerMe(svcs.Retailers, logg))
				r.Get("/me/balance", controllers.RetailerBalance(svcs.Ledger, logg))
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
					r.Get("/", controllers.ListRetailers(svcs.Retailers, logg))
					r.Get("/{retailerId}", controllers.GetRetailer(svcs.Retailers, logg))
					r.Get("/{retailerId}/balance", controllers.RetailerBalance(svcs.Ledger, logg))
					r.Patch("/{retailerId}", controllers.AdminUpdateRetailer(svcs.Retailers, logg))
					r.Delete("/{retailerId}", controllers.DeleteRetailer(svcs.Retailers, logg))
				})
			})

			r.Route("/reports", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
				r.Get("/orders", controllers.ReportAllOrders(svcs.Reports, logg))
				r.Get("/orders/retailer/{retailerId}", controllers.ReportRetailerOrders(svcs.Reports, logg))
				r.Get("/orders/search", controllers.ReportSearchOrders(svcs.Reports, logg))
				r.Get("/shift-summary", controllers.ReportShiftSummary(svcs.Reports, logg))
				r.Get("/shift-summary/export", controllers.ReportShiftSummaryExport(svcs.Reports, logg))
				r.Get("/product-sales", controllers.ReportProductSales(svcs.Reports, logg))
			})
		})
	})

	return r
}
