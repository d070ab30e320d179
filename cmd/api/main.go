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
	"go.uber.org/multierr"

	"github.com/tapsnap/tapsnap-backend/api/routes"
	checkoutsvc "github.com/tapsnap/tapsnap-backend/internal/checkout"
	"github.com/tapsnap/tapsnap-backend/internal/merchants"
	"github.com/tapsnap/tapsnap-backend/internal/payouts"
	"github.com/tapsnap/tapsnap-backend/internal/transactions"
	adyenwebhook "github.com/tapsnap/tapsnap-backend/internal/webhooks/adyen"
	"github.com/tapsnap/tapsnap-backend/pkg/config"
	"github.com/tapsnap/tapsnap-backend/pkg/db"
	"github.com/tapsnap/tapsnap-backend/pkg/logger"
	"github.com/tapsnap/tapsnap-backend/pkg/metrics"
	"github.com/tapsnap/tapsnap-backend/pkg/migrate"
	"github.com/tapsnap/tapsnap-backend/pkg/psp"
	"github.com/tapsnap/tapsnap-backend/pkg/redis"
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
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	pspClient, err := psp.NewClient(context.Background(), cfg.PSP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to initialize psp client", err)
		os.Exit(1)
	}

	conn := dbClient.DB()
	merchantRepo := merchants.NewRepository(conn)

	merchantSvc, err := merchants.NewService(merchantRepo, pspClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create merchant service", err)
		os.Exit(1)
	}

	txnSvc, err := transactions.NewService(transactions.ServiceParams{
		Repo:              transactions.NewRepository(conn),
		MerchantRepo:      merchantRepo,
		TransactionRunner: dbClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create transaction service", err)
		os.Exit(1)
	}

	payoutSvc, err := payouts.NewService(payouts.NewRepository(conn), merchantRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create payout service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(txnSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	webhookRepo := adyenwebhook.NewRepository(conn)
	reconciler, err := adyenwebhook.NewReconciler(webhookRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciler", err)
		os.Exit(1)
	}
	webhookSvc, err := adyenwebhook.NewService(adyenwebhook.ServiceParams{
		Repo:              webhookRepo,
		Reconciler:        reconciler,
		TransactionRunner: dbClient,
		SigningSecret:     cfg.Webhook.SigningSecret,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookMetrics := metrics.NewWebhookMetrics(prometheus.DefaultRegisterer)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:             cfg,
			Logger:             logg,
			DB:                 dbClient,
			Redis:              redisClient,
			MerchantService:    merchantSvc,
			TransactionService: txnSvc,
			PayoutService:      payoutSvc,
			CheckoutService:    checkoutService,
			WebhookService:     webhookSvc,
			WebhookMetrics:     webhookMetrics,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}

	closeErr := multierr.Combine(
		redisClient.Close(),
		dbClient.Close(),
	)
	if closeErr != nil {
		logg.Error(ctx, "error closing resources", closeErr)
		os.Exit(1)
	}
}
