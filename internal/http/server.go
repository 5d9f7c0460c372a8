package http

import (
	"context"
	"net/http"
	"time"

	"github.com/jmehdipour/micromdm-webhook/internal/config"
	"github.com/jmehdipour/micromdm-webhook/internal/http/middleware"
	"github.com/jmehdipour/micromdm-webhook/internal/model"
	"github.com/jmehdipour/micromdm-webhook/internal/registry"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// EventDispatcher consumes decoded webhook envelopes.
type EventDispatcher interface {
	Dispatch(ctx context.Context, env model.Envelope)
}

type Server struct {
	e   *echo.Echo
	log *zap.Logger
}

func NewServer(cfg config.Config, devices registry.Registry, disp EventDispatcher, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "http"))

	// echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(log.ERROR)
	e.Server.ReadTimeout = cfg.HTTP.ReadTimeout
	e.Server.WriteTimeout = cfg.HTTP.WriteTimeout
	e.Use(echoMid.Recover(), middleware.RequestLogger(logger))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// middlewares
	var mws []echo.MiddlewareFunc
	if cfg.HTTP.Auth.Enabled() {
		mws = append(mws, middleware.BasicAuth(cfg.HTTP.Auth.Username, cfg.HTTP.Auth.Password))
	}

	// routes
	g := e.Group("", mws...)
	g.POST(cfg.HTTP.WebhookPath, webhookHandler(disp, logger))
	g.GET("/devices/:udid", getDeviceHandler(devices, logger))

	return &Server{e: e, log: logger}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) Start(addr string) error {
	s.log.Info("listening", zap.String("addr", addr))
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.e.Shutdown(ctx)
}
