// Package server
//
// @title Myhealth API
// @version 1.0
// @description Authentication and welcome-email service API
// @host localhost:8080
// @BasePath /
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/myhealth-dev/myhealth/internal/config"
	"github.com/myhealth-dev/myhealth/internal/docstore"
	"github.com/myhealth-dev/myhealth/internal/identity"
	"github.com/myhealth-dev/myhealth/internal/mailer"
	"github.com/myhealth-dev/myhealth/internal/routegate"
	"github.com/myhealth-dev/myhealth/internal/storage"
)

// Server represents the HTTP server
type Server struct {
	router   *gin.Engine
	docs     *docstore.Store
	config   *config.Config
	logger   zerolog.Logger
	provider *identity.Provider
	tokens   *identity.TokenService
	storage  storage.Downloader
	mailer   mailer.Sender
	routes   *routegate.Table
	version  string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	// Initialize document store (runs migrations)
	docs, err := docstore.Open(cfg.Database.URL, zlog)
	if err != nil {
		return nil, err
	}

	// Initialize identity provider
	tokens, err := identity.NewTokenService(cfg.Auth.JWTSecret)
	if err != nil {
		return nil, err
	}
	provider := identity.NewProvider(tokens)

	// Initialize attachment storage
	var store storage.Downloader
	switch cfg.Storage.Backend {
	case "s3":
		store, err = storage.NewS3Store(context.Background(), cfg.Storage.Bucket, cfg.Storage.Region)
		if err != nil {
			return nil, err
		}
	case "local":
		store = storage.NewLocalStore(cfg.Storage.LocalDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	// Initialize route table
	routes := routegate.DefaultTable()
	if cfg.Server.RoutesFile != "" {
		data, err := os.ReadFile(cfg.Server.RoutesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read route table: %w", err)
		}
		routes, err = routegate.ParseTable(data)
		if err != nil {
			return nil, err
		}
	}

	server := &Server{
		docs:     docs,
		config:   cfg,
		logger:   zlog,
		provider: provider,
		tokens:   tokens,
		storage:  store,
		mailer: mailer.NewSendGridClient(
			cfg.Mail.APIKey,
			cfg.Mail.TemplateID,
			cfg.Mail.FromEmail,
			cfg.Mail.FromName,
		),
		routes:  routes,
		version: version,
	}

	server.setupRouter()

	return server, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	// Register custom validators on the binding engine
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("plaintext", func(fl validator.FieldLevel) bool {
			for _, char := range fl.Field().String() {
				if char < 0x20 || char == 0x7f {
					return false
				}
			}
			return true
		})
	}

	s.router = gin.New()
	s.router.HandleMethodNotAllowed = true

	// Add middleware
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// CORS middleware: configured browser origin only
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{s.config.Server.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s.router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})
	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// Privileged action endpoint; verifies its own bearer credential
	s.router.POST("/sendWelcomeEmail", s.sendWelcomeEmail)

	// Public auth endpoints (no auth required)
	s.router.POST("/api/auth/register", s.register)
	s.router.POST("/api/auth/login", s.login)

	// Route table for the UI shell
	s.router.GET("/api/routes", s.getRoutes)

	// Authenticated API routes (bearer token required)
	api := s.router.Group("/api")
	api.Use(AuthMiddleware(s.provider, s.logger))
	{
		api.GET("/auth/me", s.getCurrentUser)
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "myhealth-api",
		"version":   s.version,
	})
}

// @Router /api/routes [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) getRoutes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"home":   s.routes.Home(),
		"routes": s.routes.Routes(),
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := ":" + s.config.Server.Port

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       90 * time.Second,
		WriteTimeout:      90 * time.Second,
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       300 * time.Second,
	}

	// Start server in goroutine
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.logger.Info().Msg("Server shutdown complete")

	// Close database connection to flush WAL writes
	if sqlDB, err := s.docs.DB().DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		}
	}

	return nil
}
