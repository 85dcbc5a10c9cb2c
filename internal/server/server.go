package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hostpulse/vitals-agent/config"
	"github.com/hostpulse/vitals-agent/internal/store"
)

// Server represents the HTTP server
type Server struct {
	cfg        *config.Config
	router     *gin.Engine
	handlers   *Handlers
	auth       *AuthService
	limiter    *RateLimiter
	httpServer *http.Server
}

// New creates a new server instance serving snapshots from the store
func New(cfg *config.Config, st *store.Store) *Server {
	// Set Gin mode based on log level
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	s := &Server{
		cfg:      cfg,
		router:   router,
		handlers: NewHandlers(st),
		auth:     NewAuthService(cfg.APIKey, cfg.JWTSecret),
		limiter:  NewRateLimiter(cfg.RateLimitRPS),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(RecoveryMiddleware())
	s.router.Use(LoggerMiddleware())
	s.router.Use(CORSMiddleware(s.cfg.AllowedOrigins))
	s.router.Use(RateLimitMiddleware(s.limiter))
}

func (s *Server) setupRoutes() {
	// Health check (no auth)
	s.router.GET("/health", s.handlers.HealthCheck)

	// API routes (require auth)
	api := s.router.Group("/api")
	api.Use(AuthMiddleware(s.auth))
	{
		api.GET("/snapshot", s.handlers.GetSnapshot)
		api.GET("/snapshot/cpu", s.handlers.GetCPU)
		api.GET("/snapshot/memory", s.handlers.GetMemory)
		api.GET("/snapshot/battery", s.handlers.GetBattery)
		api.GET("/snapshot/storage", s.handlers.GetStorage)
		api.GET("/snapshot/gpu", s.handlers.GetGPU)

		// Compact one-line rendition for status-bar style consumers
		api.GET("/summary", s.handlers.GetSummary)

		// Out-of-band re-sampling trigger
		api.POST("/refresh", s.handlers.Refresh)

		// Real-time snapshot stream (SSE)
		api.GET("/events", s.handlers.StreamEvents)
	}
}

// Run starts the HTTP server and shuts it down when the context ends
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
		}
	}()

	log.Printf("Starting vitals agent on %s", s.cfg.Addr())

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Router returns the Gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
