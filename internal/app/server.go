// File: internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tm-webstudio/service4me-sub000/internal/category"
	"github.com/tm-webstudio/service4me-sub000/internal/common"
	"github.com/tm-webstudio/service4me-sub000/internal/config"
	"github.com/tm-webstudio/service4me-sub000/internal/filestorage"
	"github.com/tm-webstudio/service4me-sub000/internal/firebase"
	"github.com/tm-webstudio/service4me-sub000/internal/jobs"
	"github.com/tm-webstudio/service4me-sub000/internal/listing"
	"github.com/tm-webstudio/service4me-sub000/internal/middleware"
	"github.com/tm-webstudio/service4me-sub000/internal/notification"
	"github.com/tm-webstudio/service4me-sub000/internal/platform/elasticsearch"
	"github.com/tm-webstudio/service4me-sub000/internal/profile"
	"github.com/tm-webstudio/service4me-sub000/internal/session"
	"github.com/tm-webstudio/service4me-sub000/internal/shared"
)

// Server holds the HTTP server and its route dependencies.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	// ESClient and AppLogger are exposed for startup tasks in main
	// (index creation happens before the listener starts).
	ESClient  *elasticsearch.ESClientWrapper
	AppLogger *zap.Logger

	listingLapseJob *jobs.ListingLapseJob
}

// NewServer wires middleware, routes and page guards into a gin engine.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	sessionHandler *session.Handler,
	sessionRegistry *session.Registry,
	sessionTokens *session.TokenService,
	profileHandler *profile.Handler,
	categoryHandler *category.Handler,
	listingHandler *listing.Handler,
	notificationHandler *notification.Handler,
	listingLapseJob *jobs.ListingLapseJob,
	firebaseService *firebase.Service,
	profileService shared.ProfileService,
	files *filestorage.Service,
	esClient *elasticsearch.ESClientWrapper,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.PublicBaseURL}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	authMW := middleware.AuthMiddleware(firebaseService, profileService, logger.Named("AuthMiddleware"))
	adminRoleMW := middleware.RoleAuthMiddleware(common.RoleAdmin)
	stylistRoleMW := middleware.RoleAuthMiddleware(common.RoleStylist, common.RoleAdmin)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Service4Me API is healthy!"})
	})

	// Uploaded avatars and portfolio images.
	router.Static("/uploads", files.BasePath())

	v1 := router.Group("/api/v1")
	sessionHandler.RegisterRoutes(v1)
	profileHandler.RegisterRoutes(v1, authMW, adminRoleMW)
	categoryHandler.RegisterRoutes(v1, authMW, adminRoleMW)
	listingHandler.RegisterRoutes(v1, authMW, stylistRoleMW, adminRoleMW)
	notificationHandler.RegisterRoutes(v1, authMW)

	// Page route guards. The SPA's server-rendered entry points sit behind
	// cookie-based guards; wrong-role visitors are bounced to their own
	// dashboard, anonymous visitors to login.
	resolve := session.NewStateResolver(sessionRegistry, sessionTokens, cfg)
	pageOK := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"page": name})
		}
	}
	router.GET("/login", middleware.PublicOnly(resolve), pageOK("login"))
	router.GET("/signup", middleware.PublicOnly(resolve), pageOK("signup"))
	router.GET("/admin", middleware.RequireRole(resolve, logger, common.RoleAdmin), pageOK("admin"))
	router.GET("/dashboard/stylist", middleware.RequireRole(resolve, logger, common.RoleStylist), pageOK("dashboard-stylist"))
	router.GET("/dashboard/client", middleware.RequireRole(resolve, logger, common.RoleClient), pageOK("dashboard-client"))
	router.GET("/account", middleware.RequireAuthenticated(resolve), pageOK("account"))

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
		ESClient:        esClient,
		AppLogger:       logger,
		listingLapseJob: listingLapseJob,
	}, nil
}

func (s *Server) Start() error {
	if s.listingLapseJob != nil {
		if err := s.listingLapseJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start listing lapse job", zap.Error(err))
		}
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown")
	if s.listingLapseJob != nil {
		s.listingLapseJob.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
