package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/agency-ledger/api/routes"
	"github.com/angelmondragon/agency-ledger/internal/auth"
	"github.com/angelmondragon/agency-ledger/internal/catalog"
	"github.com/angelmondragon/agency-ledger/internal/ledger"
	"github.com/angelmondragon/agency-ledger/internal/orders"
	"github.com/angelmondragon/agency-ledger/internal/reports"
	"github.com/angelmondragon/agency-ledger/internal/retailers"
	"github.com/angelmondragon/agency-ledger/pkg/config"
	"github.com/angelmondragon/agency-ledger/pkg/db"
	"github.com/angelmondragon/agency-ledger/pkg/lock"
	"github.com/angelmondragon/agency-ledger/pkg/logger"
	"github.com/angelmondragon/agency-ledger/pkg/metrics"
	"github.com/angelmondragon/agency-ledger/pkg/migrate"
	"github.com/angelmondragon/agency-ledger/pkg/redis"
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
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	requireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		requireResource(ctx, logg, "redis", err)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(ctx, "redis not configured; idempotency replay and auth rate limits disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	ledgerMetrics := metrics.NewLedgerMetrics(registry)

	locker, err := orderLocker(cfg.Orders, redisClient)
	requireResource(ctx, logg, "order locker", err)

	conn := dbClient.DB()
	retailerRepo := retailers.NewRepository(conn)

	authService, err := auth.NewService(auth.ServiceParams{
		Accounts:       retailerRepo,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	requireResource(ctx, logg, "auth service", err)

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
		AppEnv:         cfg.App.Env,
	})
	requireResource(ctx, logg, "register service", err)

	catalogService, err := catalog.NewService(catalog.NewRepository(conn))
	requireResource(ctx, logg, "catalog service", err)

	ledgerService, err := ledger.NewService(ledger.ServiceParams{
		Repo:    ledger.NewRepository(conn),
		TX:      dbClient,
		Logger:  logg,
		Metrics: ledgerMetrics,
	})
	requireResource(ctx, logg, "ledger service", err)

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:            orders.NewRepository(conn),
		TX:              dbClient,
		Catalog:         catalogService,
		Ledger:          ledgerService,
		Locker:          locker,
		ConflictRetries: cfg.Orders.ConflictRetries,
		Logger:          logg,
		Metrics:         ledgerMetrics,
	})
	requireResource(ctx, logg, "orders service", err)

	retailerService, err := retailers.NewService(retailerRepo)
	requireResource(ctx, logg, "retailers service", err)

	reportService, err := reports.NewService(reports.NewRepository(conn), logg, cfg.App.SupplierName)
	requireResource(ctx, logg, "reports service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"db_driver":  dbClient.Driver(),
		"order_lock": cfg.Orders.LockMode,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Infra{DB: dbClient, Redis: redisClient, Gatherer: registry}, routes.Services{
			Auth:      authService,
			Register:  registerService,
			Catalog:   catalogService,
			Orders:    ordersService,
			Ledger:    ledgerService,
			Retailers: retailerService,
			Reports:   reportService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(serverCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(serverCtx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(serverCtx, "graceful shutdown failed", err)
		return
	}
	logg.Info(serverCtx, "api server stopped")
}

// orderLocker picks the key guard taken around order find-or-create.
func orderLocker(cfg config.OrdersConfig, redisClient *redis.Client) (lock.KeyLocker, error) {
	switch strings.ToLower(cfg.LockMode) {
	case config.OrderLockNone:
		return lock.Nop{}, nil
	case config.OrderLockRedis:
		if redisClient == nil {
			return nil, errors.New("redis order lock requires a redis client")
		}
		return lock.NewRedis(redisClient, cfg.LockTTL, cfg.LockWait)
	default:
		return lock.NewLocal(cfg.LockWait), nil
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
