package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civic-pulse/config"
	"civic-pulse/internal/handler"
	"civic-pulse/internal/identity"
	"civic-pulse/internal/metrics"
	"civic-pulse/internal/middleware"
	"civic-pulse/internal/proxy"
	"civic-pulse/internal/redis"
	"civic-pulse/internal/services"
	"civic-pulse/internal/transport/httpdto"
	"civic-pulse/internal/websocket"
	"civic-pulse/pkg/database"
	"civic-pulse/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Poll *handler.PollHandler
	User *handler.UserHandler
	Live *websocket.Handler
}

// Dependencies are the shared collaborators the routes need. Redis and the
// rate limiter may be nil when redis is disabled.
type Dependencies struct {
	Auth     *services.AuthService
	Access   *proxy.AccessControl
	Limiter  *redis.RateLimiter
	Hasher   *identity.IPHasher
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
	DB       *gorm.DB
	Redis    *goredis.Client
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.AppPort),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

// Engine exposes the gin engine to tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) SetupRoutes(handlers *Handlers, deps Dependencies) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware(s.config.CORSAllowedOrigins))
	s.engine.Use(middleware.LoggingMiddleware(s.logger, deps.Metrics))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := database.HealthCheck(ctx, deps.DB); err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "unhealthy"))
			return
		}
		if deps.Redis != nil {
			if err := redis.Ping(ctx, deps.Redis); err != nil {
				c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "unhealthy"))
				return
			}
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	if deps.Registry != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	requireAuth := middleware.RequireAuthMiddleware()
	voteLimit := middleware.VoteRateLimitMiddleware(deps.Limiter, deps.Hasher)
	optionLimit := middleware.OptionRateLimitMiddleware(deps.Limiter, deps.Hasher)

	v1 := s.engine.Group("/v1")
	v1.Use(middleware.VoterSessionMiddleware(s.config.SessionCookieName, s.config.SessionCookieSecure))
	v1.Use(middleware.OptionalAuthMiddleware(deps.Auth))

	v1.GET("/me", handlers.User.WhoAmI)

	polls := v1.Group("/polls")
	{
		polls.POST("", requireAuth, handlers.Poll.Create)
		polls.GET("/:id", handlers.Poll.Get)
		polls.POST("/:id/vote", voteLimit, handlers.Poll.Vote)
		polls.DELETE("/:id/vote", voteLimit, handlers.Poll.CancelVote)
		polls.POST("/:id/options", optionLimit, handlers.Poll.AddOption)
		polls.GET("/:id/pending", requireAuth, handlers.Poll.PendingOptions)
		polls.POST("/:id/options/:optionId/approve", requireAuth, handlers.Poll.ApproveOption)
		polls.DELETE("/:id/options/:optionId", requireAuth, handlers.Poll.DeleteOption)
		polls.PUT("/:id/link-policy", requireAuth, handlers.Poll.UpdateLinkPolicy)
		polls.GET("/:id/statistics", handlers.Poll.Statistics)
		polls.POST("/:id/reconcile", requireAuth, middleware.RequireAdminMiddleware(deps.Access), handlers.Poll.Reconcile)
		if handlers.Live != nil {
			polls.GET("/:id/live", handlers.Live.Live)
		}
	}
}

func (s *Server) Start() error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	if s.logger != nil {
		s.logger.Infof("Server is running on :%s", s.config.AppPort)
	}

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
