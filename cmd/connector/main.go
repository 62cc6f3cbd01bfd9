package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application/services"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/config"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/domain"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/infrastructure/loyalty"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/infrastructure/persistence"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/infrastructure/persistence/postgres"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/interfaces/rest/handlers"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/interfaces/rest/middleware"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/worker"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting loyalty connector",
		"port", cfg.Server.Port,
		"program", cfg.Loyalty.ProgramName,
		"log_level", cfg.Logger.Level,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := persistence.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	basketRepo := postgres.NewBasketRepository(db)
	customerRepo := postgres.NewCustomerRepository(db)
	settingsRepo := postgres.NewSettingsRepository(db)
	txManager := postgres.NewTransactionCoordinator(db)

	loyaltyClient := loyalty.NewClient(cfg.Loyalty, settingsRepo, logger)
	tokenClient := loyalty.NewRetryTokenClient(loyaltyClient, cfg.Retry)

	validator := services.NewVoucherValidator(loyaltyClient, logger)
	applier := services.NewVoucherApplier(basketRepo, txManager, validator, logger)
	consumer := services.NewVoucherConsumer(loyaltyClient, txManager, logger)
	redemption := services.NewRedemptionService(customerRepo, loyaltyClient, logger)
	members := services.NewMemberService(customerRepo, loyaltyClient, cfg.Loyalty, logger)
	newsletter := services.NewNewsletterService(customerRepo, settingsRepo, loyaltyClient, logger)

	checkout := services.NewCheckoutService(basketRepo, txManager, logger)
	checkout.RegisterProcessor(domain.PaymentMethodLoyaltyVoucher, domain.PaymentMethodLoyaltyVoucher, consumer)

	router := handlers.NewRouter(
		handlers.NewHealthHandler(db, logger),
		middleware.Session(customerRepo, logger),
		handlers.NewVoucherHandler(validator, applier, redemption, logger),
		handlers.NewCheckoutHandler(checkout, logger),
		handlers.NewMemberHandler(members, newsletter, logger),
	)

	handler := middleware.Recovery(logger)(router)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Timeout(cfg.Server.RequestTimeout)(handler)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	dataSync := worker.NewDataSyncWorker(tokenClient, loyaltyClient, settingsRepo, cfg.Worker.Interval, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		dataSync.Start(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("connector stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited")
}
