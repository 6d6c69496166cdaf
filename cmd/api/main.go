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
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/marketcore-backend/api/controllers"
	"github.com/angelmondragon/marketcore-backend/api/routes"
	"github.com/angelmondragon/marketcore-backend/internal/address"
	"github.com/angelmondragon/marketcore-backend/internal/cart"
	"github.com/angelmondragon/marketcore-backend/internal/checkout"
	"github.com/angelmondragon/marketcore-backend/internal/inventory"
	"github.com/angelmondragon/marketcore-backend/internal/orders"
	product "github.com/angelmondragon/marketcore-backend/internal/products"
	"github.com/angelmondragon/marketcore-backend/internal/promotions"
	"github.com/angelmondragon/marketcore-backend/pkg/config"
	"github.com/angelmondragon/marketcore-backend/pkg/db"
	"github.com/angelmondragon/marketcore-backend/pkg/logger"
	"github.com/angelmondragon/marketcore-backend/pkg/metrics"
	"github.com/angelmondragon/marketcore-backend/pkg/migrate"
	"github.com/angelmondragon/marketcore-backend/pkg/outbox"
	"github.com/angelmondragon/marketcore-backend/pkg/redis"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		_ = dbClient.Close()
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		_ = dbClient.Close()
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	orderMetrics := metrics.NewOrderMetrics(registry)

	conn := dbClient.DB()
	products := product.NewRepository(conn)
	ledger := inventory.NewLedger()
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)

	cartService, err := cart.NewService(cart.NewRepository(conn), products, dbClient, cfg.Checkout.MaxQuantity)
	if err != nil {
		logg.Error(ctx, "failed to create cart service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Tx:              dbClient,
		Carts:           cart.NewRepository(conn),
		Orders:          orders.NewRepository(conn),
		Addresses:       address.NewRepository(conn),
		Ledger:          ledger,
		Promotions:      promotions.NewResolver(),
		Outbox:          outboxSvc,
		Metrics:         orderMetrics,
		Logger:          logg,
		MaxQuantity:     cfg.Checkout.MaxQuantity,
		OrderNoAttempts: cfg.Checkout.OrderNoAttempts,
	})
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.NewRepository(conn), dbClient, outboxSvc, ledger, products, orderMetrics, logg)
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}

	engagement := inventory.NewEngagement(dbClient, ledger, redisClient, cfg.Engagement.ViewWindow, logg)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			map[string]controllers.Pinger{"db": dbClient, "redis": redisClient},
			redisClient,
			registry,
			cartService,
			checkoutService,
			ordersService,
			engagement,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			exitCode = 1
		}
		cancel()
	}

	if err := multierr.Combine(dbClient.Close(), redisClient.Close()); err != nil {
		logg.Error(ctx, "error closing connections", err)
		exitCode = 1
	}
	os.Exit(exitCode)
}
