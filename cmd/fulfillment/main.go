package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/storefront-labs/fulfillment/internal/besteffort"
	"github.com/storefront-labs/fulfillment/internal/cache"
	"github.com/storefront-labs/fulfillment/internal/clients"
	"github.com/storefront-labs/fulfillment/internal/config"
	"github.com/storefront-labs/fulfillment/internal/db"
	"github.com/storefront-labs/fulfillment/internal/httpserver"
	"github.com/storefront-labs/fulfillment/internal/invoice"
	"github.com/storefront-labs/fulfillment/internal/logging"
	"github.com/storefront-labs/fulfillment/internal/metrics"
	"github.com/storefront-labs/fulfillment/internal/models"
	"github.com/storefront-labs/fulfillment/internal/notify"
	"github.com/storefront-labs/fulfillment/internal/payment"
	"github.com/storefront-labs/fulfillment/internal/pricing"
	"github.com/storefront-labs/fulfillment/internal/repo"
	"github.com/storefront-labs/fulfillment/internal/service"
	"github.com/storefront-labs/fulfillment/internal/stock"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")

	logger := logging.New(cfg.LogLevel)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	database, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := database.AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	set := clients.NewSet(clients.Config{
		InventoryURL: cfg.InventoryURL,
		WalletURL:    cfg.WalletURL,
		OfferURL:     cfg.OfferURL,
		DeliveryURL:  cfg.DeliveryURL,
		AddressURL:   cfg.AddressURL,
		CartURL:      cfg.CartURL,
		CatalogURL:   cfg.CatalogURL,
	})

	m := metrics.New(cfg.ServiceName)
	policy := &besteffort.Policy{Failures: m.BestEffortFailures}

	var productCache cache.ProductCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		productCache = cache.NewRedisCache(rdb)
	}

	notifier := notify.NewKafkaNotifier(cfg.KafkaBrokers)

	orderRepo := &repo.GormRepo{DB: database}

	orderService := &service.OrderService{
		Repo: orderRepo,
		Pricing: &pricing.Calculator{
			Offers:    set.Offers,
			Delivery:  set.Delivery,
			Addresses: set.Addresses,
			TaxRate:   cfg.TaxRate,
			CODLimit:  cfg.CODLimit,
		},
		Stock:    &stock.Coordinator{Inventory: set.Inventory, Policy: policy},
		Payments: &payment.Bridge{Wallet: set.Wallet},
		Cart:     set.Cart,
		Notify:   notifier,
		Policy:   policy,
		Metrics:  m,
	}

	orderHandler := &httpserver.OrderHTTP{
		Svc:       orderService,
		Projector: &service.Projector{Catalog: set.Catalog, Cache: productCache},
		Invoices:  &invoice.Composer{ShopName: cfg.ShopName},
		Addresses: set.Addresses,
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(httpserver.RequestLogger(logger))

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	httpserver.Register(e, &httpserver.Deps{
		OrderHandler: orderHandler,
		Metrics:      metrics.Handler(),
	})

	go func() {
		logger.Info("starting fulfillment service", "port", cfg.ServerPort)
		if err := e.Start(fmt.Sprintf(":%d", cfg.ServerPort)); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown", "error", err)
	}

	if err := notifier.Close(); err != nil {
		logger.Error("kafka close", "error", err)
	}

	if sqlDB, err := database.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Info("shutdown complete")
}
