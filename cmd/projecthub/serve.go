package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/yukikurage/projecthub/internal/config"
	"github.com/yukikurage/projecthub/internal/constants"
	"github.com/yukikurage/projecthub/internal/database"
	"github.com/yukikurage/projecthub/internal/handlers"
	"github.com/yukikurage/projecthub/internal/logging"
	"github.com/yukikurage/projecthub/internal/metrics"
	"github.com/yukikurage/projecthub/internal/middleware"
	"github.com/yukikurage/projecthub/internal/repository"
	"github.com/yukikurage/projecthub/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Run the HTTP API server. The schema is migrated on startup.

Examples:
  # Start with environment configuration
  projecthub serve

  # Start with a config file
  projecthub serve --config /etc/projecthub/config.yaml`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = logging.Sync(logger) }()

	gin.SetMode(cfg.Server.GinMode)

	db, err := database.Connect(cfg.DB, !cfg.IsProduction(), logger)
	if err != nil {
		return err
	}

	if err := database.MigrateDatabase(db, logger); err != nil {
		return err
	}

	// Setup session store with Redis
	redisAddr := cfg.Redis.Host + ":" + cfg.Redis.Port
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // username (empty for default user)
		"",        // password (empty = no password)
		[]byte(cfg.Session.Secret),
	)
	if err != nil {
		return fmt.Errorf("failed to create Redis store: %w", err)
	}

	router := newRouter(cfg, db, logger, store)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// newRouter wires services and handlers onto a gin engine using store for sessions.
func newRouter(cfg *config.Config, db *gorm.DB, logger *zap.Logger, store sessions.Store) *gin.Engine {
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.Session.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   cfg.IsProduction(), // true in production (HTTPS), false in development
		SameSite: http.SameSiteLaxMode,
	})

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.Metrics(),
		sessions.Sessions(constants.SessionCookieName, store),
	)

	var aiService *services.AIService
	if cfg.OpenAI.APIKey != "" {
		aiService = services.NewAIService(cfg.OpenAI)
	} else {
		logger.Info("OpenAI API key not set, task suggestions disabled")
	}

	media := services.NewLoggingMediaStore(logger)
	userRepo := repository.NewUserRepository(db)
	projectService := services.NewProjectService(
		repository.NewProjectRepository(db),
		userRepo,
		media,
		cfg.Slug.MaxAttempts,
		logger,
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "projecthub is running",
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	handlers.RegisterRoutes(r, handlers.Handlers{
		Auth:    handlers.NewAuthHandler(services.NewAuthService(userRepo)),
		Project: handlers.NewProjectHandler(projectService),
		Task:    handlers.NewTaskHandler(services.NewTaskService(repository.NewTaskRepository(db), projectService, aiService, logger)),
		Note:    handlers.NewNoteHandler(services.NewNoteService(repository.NewNoteRepository(db), projectService)),
		Board:   handlers.NewBoardHandler(services.NewBoardService(repository.NewBoardRepository(db), projectService, media, logger)),
	})

	return r
}
