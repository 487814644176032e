package handlers

import (
	"context"
	"net/http"

	"github.com/LavaJover/shvark-settlement-service/internal/delivery/http/middleware"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"
)

// HealthChecker reports whether the service can serve requests.
type HealthChecker func(ctx context.Context) error

type RouterConfig struct {
	ServiceName string
	Auth        middleware.AuthConfig
	Gatherer    prometheus.Gatherer
	Health      HealthChecker
}

// NewRouter wires the public API. Everything under /api/v1 requires a bearer
// token; /healthz and /metrics do not.
func NewRouter(cfg RouterConfig, disputes *DisputeHandler, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(otelecho.Middleware(cfg.ServiceName))

	e.GET("/healthz", func(c echo.Context) error {
		if cfg.Health != nil {
			if err := cfg.Health(c.Request().Context()); err != nil {
				logger.Warn("health check failed", zap.Error(err))
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := e.Group("/api/v1", middleware.JWTAuth(cfg.Auth))
	disputes.Register(api)
	return e
}
