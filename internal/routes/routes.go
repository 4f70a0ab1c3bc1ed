package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/walletops/internal/config"
	"github.com/congo-pay/walletops/internal/keylock"
	"github.com/congo-pay/walletops/internal/metrics"
	"github.com/congo-pay/walletops/internal/middleware"
	"github.com/congo-pay/walletops/internal/notification"
	"github.com/congo-pay/walletops/internal/operation"
	"github.com/congo-pay/walletops/internal/pool"
	"github.com/congo-pay/walletops/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Pool     *pool.Pool
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Pool == nil {
		return fmt.Errorf("operation pool is required")
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	if d.Cfg.IsDev() {
		// Plain text access log: [HH:MM:SS] 200 -  145ms METHOD /path
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)
	if d.Registry != nil {
		RegisterMetricsRoute(app, d.Registry)
	}

	// Services and handlers
	var store wallet.Store
	if d.DB != nil {
		store = wallet.NewPostgresRepository(d.DB)
	} else {
		store = wallet.NewMemoryRepository()
	}
	var cache *wallet.Cache
	if d.Cache != nil {
		cache = wallet.NewCache(d.Cache, d.Cfg.WalletCacheTTL)
	}
	walletSvc := wallet.NewService(store, cache, d.Logger)
	notifier := notification.NewLoggerNotifier(d.Logger)
	engine := operation.NewEngine(store, keylock.New[uuid.UUID](), walletSvc, notifier, d.Logger, d.Metrics)
	processor := operation.NewProcessor(d.Pool, engine, d.Logger, d.Metrics)

	walletHandler := wallet.NewHandler(walletSvc)
	operationHandler := operation.NewHandler(processor)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.GetRequestID(c),
			"pool":       d.Pool.Stats(),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	rateLimiter := middleware.RateLimit(d.Cache, "operation", d.Cfg.OperationRateLimit, d.Logger)
	RegisterWalletRoutes(api, walletHandler, operationHandler, rateLimiter)

	return nil
}

// PoolConfig maps configuration onto pool settings.
func PoolConfig(cfg config.PoolConfig) pool.Config {
	policy := pool.CallerRuns
	if cfg.Overload == config.OverloadReject {
		policy = pool.Reject
	}
	return pool.Config{
		MinWorkers:  cfg.MinWorkers,
		MaxWorkers:  cfg.MaxWorkers,
		IdleTimeout: cfg.IdleTimeout,
		QueueSize:   cfg.QueueSize,
		Policy:      policy,
	}
}
