package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"wcperfit/internal/api/handlers"
	"wcperfit/internal/api/middleware"
	"wcperfit/internal/config"
	"wcperfit/internal/logger"
	"wcperfit/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the services the HTTP surface is built on.
type Dependencies struct {
	Lifecycle handlers.Lifecycle
	Keys      middleware.Authenticator
	Webhooks  handlers.WebhookLister
}

type Server struct {
	config *config.Config
	logger *logger.Logger
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, logger *logger.Logger, deps Dependencies) *Server {
	// Set Gin mode
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	// Initialize handlers
	accountHandler := handlers.NewAccountHandler(handlers.SiteInfo{
		Name:    cfg.SiteName,
		URL:     cfg.SiteURL,
		LogoURL: cfg.LogoURL,
	})
	settingsHandler := handlers.NewSettingsHandler(deps.Lifecycle, cfg.AdminUserID, logger)
	webhookHandler := handlers.NewWebhookHandler(deps.Webhooks)

	// Store REST API, authenticated with the issued consumer key
	wpJSON := router.Group("/wp-json")
	wpJSON.GET("/"+handlers.AccountRoute, middleware.ConsumerAuth(deps.Keys), accountHandler.Get)

	// Admin routes
	v1 := router.Group("/api/v1", middleware.RequireAdmin(cfg.AdminToken))
	{
		settings := v1.Group("/settings")
		{
			settings.GET("", settingsHandler.Get)
			settings.POST("", settingsHandler.Save)
			settings.DELETE("", settingsHandler.Delete)
		}

		v1.GET("/webhooks", webhookHandler.List)
	}

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	return &Server{
		config: cfg,
		logger: logger,
		router: router,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	// WriteTimeout covers a full activation round trip to Perfit.
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.config.PerfitTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on %s", addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Gin engine, for tests and embedding.
func (s *Server) Router() *gin.Engine {
	return s.router
}
