package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"code.cloudfoundry.org/lager"
	"github.com/gin-gonic/gin"

	"github.com/adamscao/lotcert/internal/api/handlers"
	"github.com/adamscao/lotcert/internal/api/middleware"
	"github.com/adamscao/lotcert/internal/auth"
	"github.com/adamscao/lotcert/internal/config"
)

// Server represents the HTTP server
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     *config.Config
	logger     lager.Logger
}

// NewServer creates a new API server
func NewServer(
	cfg *config.Config,
	svc handlers.CertificateService,
	verifier auth.Verifier,
	logger lager.Logger,
) (*Server, error) {
	// Set Gin mode
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.SecurityHeaders())
	if cfg.Server.CORSEnabled {
		router.Use(middleware.CORS())
	}

	// Create handlers
	publicHandler := handlers.NewPublicHandler(svc, logger)
	adminHandler := handlers.NewAdminHandler(svc, logger)

	api := router.Group("/api")
	{
		// Public endpoints, never cached
		public := api.Group("/public")
		public.Use(middleware.NoStore())
		{
			public.GET("/certificates/:id", publicHandler.Verify)
			public.POST("/certificates/:id/download", publicHandler.Download)
		}

		// Issuer endpoints (require bearer token)
		admin := api.Group("/admin")
		{
			admin.POST("/certificates", middleware.RequireIdentity(verifier, logger, adminHandler.IssueCertificate))
			admin.GET("/certificates", middleware.RequireIdentity(verifier, logger, adminHandler.ListCertificates))
			admin.POST("/certificates/:id/revoke", middleware.RequireIdentity(verifier, logger, adminHandler.RevokeCertificate))
		}
	}

	// Health check
	router.GET("/health", handlers.Health)
	router.NoRoute(handlers.NotFound)

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:              cfg.Server.ListenAddr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		config: cfg,
		logger: logger.Session("server"),
	}, nil
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	s.logger.Info("listening", lager.Data{"addr": s.httpServer.Addr})
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Router returns the underlying Gin router
func (s *Server) Router() *gin.Engine {
	return s.router
}
