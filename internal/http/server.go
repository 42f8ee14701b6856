package http

import (
	"context"
	"net/http"
	"time"

	"github.com/jmehdipour/rfm-dashboard/internal/config"
	"github.com/jmehdipour/rfm-dashboard/internal/dashboard"
	"github.com/jmehdipour/rfm-dashboard/internal/http/middleware"
	"github.com/jmehdipour/rfm-dashboard/internal/logger"
	"github.com/jmehdipour/rfm-dashboard/internal/metrics"
	"github.com/jmehdipour/rfm-dashboard/internal/session"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct{ e *echo.Echo }

// NewServer exposes the session and dashboard state as a local JSON API.
func NewServer(cfg config.Config, sess *session.Manager, dash *dashboard.Orchestrator, rds *redis.Client) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(log.INFO)
	e.Use(echoMid.Recover(), echoMid.Logger())

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// session routes are reachable while anonymous
	s := e.Group("/v1/session")
	s.GET("", sessionHandler(sess))
	s.POST("/login", loginHandler(sess))
	s.POST("/register", registerHandler(sess))
	s.POST("/logout", logoutHandler(sess))

	// middlewares
	readyMW := middleware.ReadyMiddleware(sess)
	authMW := middleware.AuthMiddleware(sess)
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:          rds,
		RPS:            cfg.RateLimit.RPS,
		KeyPrefix:      "rl:user:",
		Window:         time.Second,
		RetryAfterHint: true,
	})

	// routes
	d := e.Group("/v1/dashboard", readyMW, authMW, rlMW)
	d.GET("", snapshotHandler(dash))
	d.POST("/filters", applyFiltersHandler(dash))
	d.PUT("/city", setCityHandler(dash))
	d.POST("/upload", uploadHandler(dash))
	d.GET("/files", listFilesHandler(dash))
	d.GET("/files/:id/download", downloadHandler(dash))
	d.POST("/modals/:kind", openModalHandler(dash))
	d.DELETE("/modals/:kind", closeModalHandler(dash))
	d.POST("/insights", insightsHandler(dash))

	return &Server{e: e}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) Start(addr string) error {
	logger.Log.Info("http: listening", zap.String("addr", addr))
	return s.e.Start(addr)
}
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
