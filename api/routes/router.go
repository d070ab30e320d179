package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tapsnap/tapsnap-backend/api/controllers"
	webhookcontrollers "github.com/tapsnap/tapsnap-backend/api/controllers/webhooks"
	"github.com/tapsnap/tapsnap-backend/api/middleware"
	checkoutsvc "github.com/tapsnap/tapsnap-backend/internal/checkout"
	"github.com/tapsnap/tapsnap-backend/internal/merchants"
	"github.com/tapsnap/tapsnap-backend/internal/payouts"
	"github.com/tapsnap/tapsnap-backend/internal/transactions"
	"github.com/tapsnap/tapsnap-backend/pkg/config"
	"github.com/tapsnap/tapsnap-backend/pkg/db"
	"github.com/tapsnap/tapsnap-backend/pkg/logger"
	"github.com/tapsnap/tapsnap-backend/pkg/metrics"
	"github.com/tapsnap/tapsnap-backend/pkg/redis"
)

type RouterParams struct {
	Config             *config.Config
	Logger             *logger.Logger
	DB                 db.Pinger
	Redis              *redis.Client
	MerchantService    merchants.Service
	TransactionService transactions.Service
	PayoutService      payouts.Service
	CheckoutService    checkoutsvc.Service
	WebhookService     webhookcontrollers.IngestService
	WebhookMetrics     *metrics.WebhookMetrics
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, params.DB, params.Redis, logg))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// The webhook route carries its own gates: transport credential first,
	// then the per-identity rate limiter. Signature verification happens in
	// the service against the raw body.
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Use(middleware.BasicAuth("webhooks", cfg.Webhook.BasicUser, cfg.Webhook.BasicPass, logg))
		if params.Redis != nil {
			r.Use(middleware.RateLimit(params.Redis, "webhooks", int64(cfg.Webhook.RateLimitMax), cfg.Webhook.RateLimitWindow, logg))
		}
		r.Post("/adyen", webhookcontrollers.AdyenWebhook(params.WebhookService, params.WebhookMetrics, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/merchants", func(r chi.Router) {
			r.Post("/", controllers.MerchantCreate(params.MerchantService, logg))
			r.Get("/{merchantID}", controllers.MerchantGet(params.MerchantService, logg))
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", controllers.TransactionCreate(params.TransactionService, logg))
			r.Get("/", controllers.TransactionList(params.TransactionService, logg))
			r.Get("/export", controllers.TransactionExportCSV(params.TransactionService, logg))
			r.Get("/{transactionID}", controllers.TransactionGet(params.TransactionService, logg))
			r.Post("/{transactionID}/confirm", controllers.TransactionConfirm(params.TransactionService, logg))
			r.Post("/{transactionID}/refund", controllers.TransactionRefund(params.TransactionService, logg))
		})

		r.Route("/payouts", func(r chi.Router) {
			r.Post("/", controllers.PayoutSchedule(params.PayoutService, logg))
			r.Get("/", controllers.PayoutList(params.PayoutService, logg))
		})

		r.Post("/onboarding/start", controllers.OnboardingStart(params.MerchantService, logg))
	})

	if !cfg.App.IsProd() {
		r.Post("/test/checkout", controllers.CheckoutSimulate(params.CheckoutService, logg))
	}

	return r
}
