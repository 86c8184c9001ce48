// Package server exposes a Session over HTTP with echo.
//
// Routes:
//
//	GET    /healthz
//	GET    /metrics                  (server.metrics_enabled)
//	GET    /api/tasks                ?workspace=&search=&status=&priority=&assignee=
//	POST   /api/tasks                TaskDraft
//	PATCH  /api/tasks/:id            TaskPatch
//	DELETE /api/tasks/:id
//	POST   /api/tasks/:id/move       {"status","listId"}
//	GET    /api/lists                ?workspace=
//	POST   /api/lists                {"title","workspaceId"}
//	PATCH  /api/lists/:id            {"title"}
//	DELETE /api/lists/:id
//	GET    /api/workspaces
//	GET    /api/board                ?workspace=
//	GET    /api/summary              ?workspace=
//	POST   /api/parse                {"text","create"}  (rate limited per client IP)
//	POST   /api/sync
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/mrz1836/taskflow/internal/config"
	"github.com/mrz1836/taskflow/internal/ctxutil"
	"github.com/mrz1836/taskflow/internal/domain"
	"github.com/mrz1836/taskflow/internal/logging"
	"github.com/mrz1836/taskflow/internal/metrics"
	"github.com/mrz1836/taskflow/internal/session"
)

// Server is the HTTP API of one session.
type Server struct {
	echo    *echo.Echo
	session *session.Session
	cfg     config.ServerConfig
	logger  zerolog.Logger
}

// requestValidator adapts domain.Validate to echo.Validator.
type requestValidator struct{}

func (requestValidator) Validate(i any) error {
	return domain.Validate(i)
}

// New builds the server and registers its routes.
func New(sess *session.Session, cfg config.ServerConfig, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = requestValidator{}

	s := &Server{
		echo:    e,
		session: sess,
		cfg:     cfg,
		logger:  logging.WithComponent(logger, logging.ComponentServer),
	}
	e.HTTPErrorHandler = s.handleError

	s.setupMiddleware()
	if cfg.MetricsEnabled && sess.Registry != nil {
		s.setupMetrics(sess.Registry)
	}
	s.setupRoutes()

	return s
}

// Handler returns the root handler, for tests and custom listeners.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Addr returns the bound listen address once Run is serving.
func (s *Server) Addr() string {
	if addr := s.echo.ListenerAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// Run serves on cfg.Addr until ctx is done, then shuts down gracefully
// within cfg.ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("server listening")
		errCh <- s.echo.Start(s.cfg.Addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := ctxutil.Detached(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info().Msg("server shutting down")
	return s.echo.Shutdown(shutdownCtx)
}

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())

	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		LogRemoteIP: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			event := s.logger.Debug()
			if v.Error != nil {
				event = s.logger.Warn().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("http request")
			return nil
		},
	}))
}

// parseLimiter throttles the parse endpoint per client IP.
func (s *Server) parseLimiter() echo.MiddlewareFunc {
	requests := max(s.cfg.RateLimitRequests, 1)
	window := s.cfg.RateLimitWindow
	if window <= 0 {
		window = config.DefaultRateLimitWindow
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(float64(requests) / window.Seconds()),
				Burst:     requests,
				ExpiresIn: window,
			},
		),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(_ echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		},
		DenyHandler: func(_ echo.Context, _ string, _ error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		},
	})
}

func (s *Server) setupMetrics(registry *prometheus.Registry) {
	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	registry.MustRegister(requestsTotal, requestDuration)

	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			var he *echo.HTTPError
			if errors.As(err, &he) {
				status = he.Code
			}
			requestsTotal.WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(status)).Inc()
			requestDuration.WithLabelValues(c.Request().Method, c.Path()).Observe(time.Since(start).Seconds())
			return err
		}
	})

	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
}

func (s *Server) setupRoutes() {
	s.echo.GET("/healthz", s.health)

	api := s.echo.Group("/api")

	api.GET("/tasks", s.listTasks)
	api.POST("/tasks", s.createTask)
	api.PATCH("/tasks/:id", s.updateTask)
	api.DELETE("/tasks/:id", s.deleteTask)
	api.POST("/tasks/:id/move", s.moveTask)

	api.GET("/lists", s.listLists)
	api.POST("/lists", s.createList)
	api.PATCH("/lists/:id", s.renameList)
	api.DELETE("/lists/:id", s.deleteList)

	api.GET("/workspaces", s.listWorkspaces)
	api.GET("/board", s.board)
	api.GET("/summary", s.summary)

	api.POST("/parse", s.parse, s.parseLimiter())
	api.POST("/sync", s.sync)
}
