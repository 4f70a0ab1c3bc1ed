package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/congo-pay/walletops/internal/config"
	"github.com/congo-pay/walletops/internal/infra"
	"github.com/congo-pay/walletops/internal/metrics"
	"github.com/congo-pay/walletops/internal/pool"
	"github.com/congo-pay/walletops/internal/routes"
)

// Server wraps the Fiber application and the operation pool.
type Server struct {
	app    *fiber.App
	cfg    config.Config
	pool   *pool.Pool
	logger *slog.Logger
}

type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
// backends may be nil or partially populated in development.
func New(cfg config.Config, backends *infra.Backends, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: errorHandler(logger),
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	p := pool.New(routes.PoolConfig(cfg.Pool), logger, m)

	deps := routes.Deps{Cfg: cfg, Logger: logger, Registry: reg, Metrics: m, Pool: p}
	if backends != nil {
		deps.DB = backends.DB
		deps.Cache = backends.Cache
	}
	if err := routes.Setup(app, deps); err != nil {
		_ = p.Close(context.Background())
		return nil, err
	}

	return &Server{app: app, cfg: cfg, pool: p, logger: logger}, nil
}

// App exposes the underlying Fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown stops accepting HTTP requests, then drains the operation pool.
func (s *Server) Shutdown(ctx context.Context) error {
	httpErr := s.app.ShutdownWithContext(ctx)
	poolErr := s.pool.Close(ctx)
	return errors.Join(httpErr, poolErr)
}

// errorHandler renders every handler error as {statusCode, message}.
func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := http.StatusInternalServerError
		message := "internal error"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		} else {
			logger.Error("unhandled error", slog.String("path", c.Path()), slog.Any("error", err))
		}
		return c.Status(code).JSON(errorResponse{StatusCode: code, Message: message})
	}
}
