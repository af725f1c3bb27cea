package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"sprouting-academy/internal/backend"
	"sprouting-academy/internal/config"
	"sprouting-academy/internal/db"
	"sprouting-academy/internal/httpserver"
	"sprouting-academy/internal/migrate"
	"sprouting-academy/internal/notify"
	"sprouting-academy/internal/repository/guestcart"
	anonymoussvc "sprouting-academy/internal/service/anonymous"
	cartsvc "sprouting-academy/internal/service/cart"
	catalogsvc "sprouting-academy/internal/service/catalog"
	checkoutsvc "sprouting-academy/internal/service/checkout"
	paymentsvc "sprouting-academy/internal/service/payment"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		panic(err)
	}
	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	guestRepo, store, closeStore, err := openGuestStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open guest cart store", zap.String("driver", cfg.GuestCartDriver), zap.Error(err))
	}
	defer closeStore()

	backendClient := backend.NewClient(cfg.BackendAPIURL, nil, logger)
	cartService, err := cartsvc.New(guestRepo, backendClient, cfg.CartCacheSize, logger)
	if err != nil {
		logger.Fatal("init cart service", zap.Error(err))
	}
	catalogService := catalogsvc.New(catalogsvc.NewClient(cfg.CMSAPIURL, nil, logger), cfg.CatalogCacheTTL)
	anonymousService := anonymoussvc.New(guestRepo)
	tokenizer := paymentsvc.NewOmiseTokenizer(cfg.OmiseVaultURL, cfg.OmisePublicKey, nil, logger)

	notifiers := notify.Multi{notify.NewDiscord(cfg.DiscordWebhookURL, nil)}
	var publisher *notify.Publisher
	if cfg.RabbitMQURL != "" {
		publisher, err = notify.DialPublisher(cfg.RabbitMQURL, cfg.EventsExchange)
		if err != nil {
			logger.Warn("payment events disabled", zap.Error(err))
		} else {
			notifiers = append(notifiers, publisher)
		}
	}
	dispatcher := notify.NewDispatcher(notifiers, logger)

	checkoutService := checkoutsvc.New(checkoutsvc.Config{
		VisitTTL:   cfg.CheckoutVisitTTL,
		VisitLimit: cfg.CheckoutVisitLimit,
	}, backendClient, cartService, backendClient, tokenizer, dispatcher, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		GuestKeys:   anonymousService,
		Carts:       cartService,
		Catalog:     catalogService,
		Checkout:    checkoutService,
		Store:       store,
		CORSOrigins: cfg.CORSAllowedOrigins,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
	if err := checkoutService.Shutdown(ctx); err != nil {
		logger.Warn("checkout visits not fully torn down", zap.Error(err))
	}
	if err := dispatcher.Wait(ctx); err != nil {
		logger.Warn("payment notifications still pending at shutdown", zap.Error(err))
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Warn("close publisher", zap.Error(err))
		}
	}
}

func newLogger(cfg config.Config) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	return logger.With(zap.String("app", "api"))
}

// openGuestStore migrates and opens the configured guest cart backend.
func openGuestStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (guestcart.Repository, httpserver.Pinger, func(), error) {
	switch cfg.GuestCartDriver {
	case config.DriverPostgres:
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := migrate.Apply(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		return guestcart.NewPostgres(pool, logger), pool, pool.Close, nil
	default:
		if err := migrate.ApplySQLite(ctx, cfg.SQLitePath, logger); err != nil {
			return nil, nil, nil, err
		}
		conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		return guestcart.NewSQLite(conn, logger), httpserver.PingFunc(conn.PingContext), func() { _ = conn.Close() }, nil
	}
}
