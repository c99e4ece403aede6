package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"voicebox/internal/config"
	"voicebox/internal/handler"
	"voicebox/internal/middleware"
	"voicebox/internal/session"
	"voicebox/internal/transport/httpdto"
	"voicebox/pkg/database"
	"voicebox/pkg/logger"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
	cron       *cron.Cron
}

type Handlers struct {
	Launch     *handler.LaunchHandler
	Submission *handler.SubmissionHandler
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	switch cfg.Server.Environment {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.LoadHTMLGlob("web/templates/*")

	return &Server{
		httpServer: &http.Server{
			Addr:    cfg.ListenAddr(),
			Handler: engine,
		},
		engine: engine,
		config: cfg,
		logger: l,
		cron:   cron.New(),
	}
}

// SetupRoutes wires the HTTP surface. uploadsDir is only non-empty in local
// storage mode, where stored recordings are served straight off disk.
func (s *Server) SetupRoutes(handlers *Handlers, codec *session.Codec, store session.Store, db *gorm.DB, uploadsDir string) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "voicebox is running")
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if err := database.HealthCheck(db); err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse("database unreachable", "UNHEALTHY"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewHealthResponse())
	})

	s.engine.POST("/launch", handlers.Launch.Launch)

	s.engine.Static("/static", "./web/static")
	if uploadsDir != "" {
		s.engine.Static("/uploads", uploadsDir)
	}

	authed := s.engine.Group("/", middleware.SessionMiddleware(codec, store))
	{
		authed.POST("/upload-audio", handlers.Submission.Upload)
		authed.GET("/submission/:id", handlers.Submission.Get)
		authed.GET("/submissions", handlers.Submission.List)
	}

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("Not found", "NOT_FOUND"))
	})
}

// ScheduleSessionSweep drops expired in-memory sessions on a fixed cadence.
// Redis-backed sessions expire on their own and need no sweep.
func (s *Server) ScheduleSessionSweep(store *session.MemoryStore) error {
	_, err := s.cron.AddFunc("@every 5m", func() {
		if removed := store.DeleteExpired(); removed > 0 {
			s.logger.Infof("session sweep removed %d expired sessions", removed)
		}
	})
	return err
}

func (s *Server) Start() error {
	s.cron.Start()

	go func() {
		s.logger.Infof("listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("server error: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	s.logger.Infof("shutdown signal received")

	cronCtx := s.cron.Stop()
	<-cronCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Errorf("graceful shutdown failed: %s", err)
		return err
	}

	s.logger.Infof("server stopped")
	return nil
}
