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

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/salonikashyap7899/IG-Clone/internal/api"
	"github.com/salonikashyap7899/IG-Clone/internal/config"
	"github.com/salonikashyap7899/IG-Clone/internal/db"
	"github.com/salonikashyap7899/IG-Clone/internal/middleware"
	"github.com/salonikashyap7899/IG-Clone/internal/observ"
	"github.com/salonikashyap7899/IG-Clone/internal/realtime"
	"github.com/salonikashyap7899/IG-Clone/internal/repository/postgres"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	// Startup has no parent deadline; Background is the right root here;
	// per-request contexts take over once the server is up.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	if err := os.MkdirAll(cfg.MediaDir, 0o755); err != nil {
		return fmt.Errorf("create media dir: %w", err)
	}

	// Realtime fan-out: handlers publish through the bus, the hub bridges
	// Redis pub/sub back into local websocket subscribers.
	hub := realtime.NewHub(rdb, logger)
	go hub.Run(ctx)
	bus := realtime.NewBus(rdb)

	pool := database.Pool()
	userRepo := postgres.NewUserStore(pool)
	followRepo := postgres.NewFollowStore(pool)
	postRepo := postgres.NewPostStore(pool)
	likeRepo := postgres.NewLikeStore(pool)
	commentRepo := postgres.NewCommentStore(pool)
	chatRepo := postgres.NewChatStore(pool)
	messageRepo := postgres.NewMessageStore(pool)

	authHandler := api.NewAuthHandler(userRepo, cfg.JWTSecret, logger)
	userHandler := api.NewUserHandler(userRepo, followRepo, postRepo, cfg.MediaDir, logger)
	postHandler := api.NewPostHandler(postRepo, likeRepo, bus, cfg.MediaDir, logger)
	commentHandler := api.NewCommentHandler(commentRepo, postRepo, bus, logger)
	chatHandler := api.NewChatHandler(chatRepo, messageRepo, userRepo, bus, logger)
	streamHandler := api.NewStreamHandler(hub, messageRepo, userRepo, logger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// Uploaded images are served straight off disk.
	router.Static("/media", cfg.MediaDir)

	// Public: health for load balancers, auth because it mints the tokens,
	// search and the follower lists so profiles render without a session.
	router.GET("/api/health", func(c *gin.Context) {
		if err := database.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "database unreachable"})
			return
		}
		if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "redis unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.POST("/api/auth/signup", authHandler.Signup)
	router.POST("/api/auth/login", authHandler.Login)
	router.GET("/api/users/search", userHandler.Search)
	router.GET("/api/users/:username/followers", userHandler.ListFollowers)
	router.GET("/api/users/:username/following", userHandler.ListFollowing)

	// Everything else requires a valid token.
	authed := router.Group("/api")
	authed.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	authed.GET("/users/me", userHandler.GetMe)
	authed.PUT("/users/me", userHandler.UpdateMe)
	authed.GET("/users/:username", userHandler.GetProfile)
	authed.POST("/users/:username/follow", userHandler.ToggleFollow)

	authed.POST("/posts", postHandler.Create)
	authed.GET("/posts", postHandler.List)
	authed.GET("/posts/:id", postHandler.GetByID)
	authed.POST("/posts/:id/like", postHandler.ToggleLike)
	authed.POST("/posts/:id/comments", commentHandler.Create)
	authed.GET("/posts/:id/comments", commentHandler.List)
	authed.DELETE("/posts/:id/comments/:commentID", commentHandler.Delete)

	authed.GET("/chats", chatHandler.List)
	authed.POST("/chats/:userID/messages", chatHandler.Send)
	authed.GET("/chats/:userID/messages", chatHandler.ListMessages)

	authed.GET("/ws/feed", streamHandler.Feed)
	authed.GET("/ws/chats/:userID", streamHandler.Chat)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
