// File: internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"magic_broom_backend/internal/application"
	"magic_broom_backend/internal/auth"
	"magic_broom_backend/internal/common"
	"magic_broom_backend/internal/config"
	"magic_broom_backend/internal/firebase"
	"magic_broom_backend/internal/jobs"
	"magic_broom_backend/internal/middleware"
	"magic_broom_backend/internal/notification"
	"magic_broom_backend/internal/platform/elasticsearch"
	"magic_broom_backend/internal/request"
	"magic_broom_backend/internal/shared"
	"magic_broom_backend/internal/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	requestSweepJob *jobs.RequestSweepJob
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	authHandler *auth.Handler,
	userHandler *user.Handler,
	requestHandler *request.Handler,
	applicationHandler *application.Handler,
	notificationHandler *notification.Handler,
	requestSweepJob *jobs.RequestSweepJob,
	esClient *elasticsearch.ESClientWrapper,
	firebaseService *firebase.FirebaseService,
	userService shared.Service,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	// CORS Middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	// Create middleware instances
	tokenMW := middleware.TokenAuthMiddleware(firebaseService, logger.Named("TokenAuthMiddleware"))
	authMW := middleware.AuthMiddleware(firebaseService, userService, logger.Named("AuthMiddleware"))
	verifiedMW := middleware.RequireVerifiedEmail(firebaseService, logger.Named("RequireVerifiedEmail"))
	cleanerMW := middleware.RoleAuthMiddleware(common.RoleCleaner)
	adminClaimMW := middleware.AdminClaimMiddleware()

	// Search index is optional; a nil client leaves the search endpoint
	// disabled but the rest of the API up.
	if err := elasticsearch.CreateCleaningRequestsIndexIfNotExists(esClient, logger); err != nil {
		logger.Warn("Failed to ensure cleaning requests search index exists", zap.Error(err))
	}

	// --- Setup Routes ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Magic Broom API is healthy!"})
	})

	// Uploaded profile pictures are served straight from disk.
	router.Static("/uploads", cfg.UploadDir)

	v1 := router.Group("/api/v1")

	authHandler.RegisterRoutes(v1, tokenMW, authMW)
	userHandler.RegisterRoutes(v1, authMW, adminClaimMW)
	requestHandler.RegisterRoutes(v1, authMW, verifiedMW, cleanerMW)
	applicationHandler.RegisterRoutes(v1, authMW, verifiedMW, adminClaimMW)

	notificationGroup := v1.Group("/notifications", authMW)
	notificationHandler.RegisterRoutes(notificationGroup)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer:      httpServer,
		router:          router,
		cfg:             cfg,
		logger:          logger,
		requestSweepJob: requestSweepJob,
	}, nil
}

func (s *Server) Start() error {
	if s.requestSweepJob != nil {
		if err := s.requestSweepJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start request sweep job", zap.Error(err))
		}
	} else {
		s.logger.Info("Request sweep job is not configured, skipping start.")
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped gracefully or an error occurred")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.requestSweepJob != nil {
		s.requestSweepJob.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
