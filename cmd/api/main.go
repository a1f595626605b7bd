package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"

	"diorder/internal/cache"
	"diorder/internal/cartstore"
	"diorder/internal/catalog"
	"diorder/internal/checkout"
	"diorder/internal/config"
	"diorder/internal/db"
	"diorder/internal/httpserver"
	menurepo "diorder/internal/repository/menu"
	merchantrepo "diorder/internal/repository/merchant"
	orderrepo "diorder/internal/repository/order"
	settingsrepo "diorder/internal/repository/settings"
	"diorder/internal/staleness"
)

// pointSink routes the best-effort popularity counters to their tables.
type pointSink struct {
	merchants merchantrepo.Repository
	menu      menurepo.Repository
}

func (p pointSink) AddMerchantPoints(ctx context.Context, merchantID, delta int64) error {
	return p.merchants.AddPoints(ctx, merchantID, delta)
}

func (p pointSink) AddMenuPoints(ctx context.Context, itemID, delta int64) error {
	return p.menu.AddPoints(ctx, itemID, delta)
}

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer rdb.Close()

	durable := cache.New(rdb, logger)
	if err := durable.Init(ctx); err != nil {
		logger.Fatalf("init cache: %v", err)
	}

	merchantRepo := merchantrepo.NewPostgres(dbpool, logger)
	menuRepo := menurepo.NewPostgres(dbpool, logger)
	settingsRepo := settingsrepo.NewPostgres(dbpool, logger)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)

	policy := staleness.New(durable, logger, staleness.WithTTL(cfg.StalenessTTL))
	loader := catalog.New(durable, policy, merchantRepo, menuRepo, settingsRepo, logger)

	cart := cartstore.New(durable, logger)
	if err := cart.Load(ctx); err != nil {
		logger.Printf("cart rehydrate failed, starting empty: %v", err)
	}

	checkoutSvc := checkout.New(cart, loader, orderRepo,
		pointSink{merchants: merchantRepo, menu: menuRepo},
		cfg.OrderContact, logger)

	srv := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		Catalog:        loader,
		Cart:           cart,
		Checkout:       checkoutSvc,
		DB:             dbpool,
		Redis:          rdb,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
