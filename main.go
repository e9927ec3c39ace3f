package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"booking-miniapp/config"
	"booking-miniapp/database"
	"booking-miniapp/editor"
	"booking-miniapp/firebase"
	"booking-miniapp/handlers"
	"booking-miniapp/middleware"
	"booking-miniapp/routes"
	"booking-miniapp/telegram"
	"booking-miniapp/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Fatal("Error loading .env file:", err)
	}

	if err := config.ValidateEnv(); err != nil {
		log.Fatal("Environment validation failed: ", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	logger := utils.InitializeLogger(config.IsProduction())
	defer logger.Sync()
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect()
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := database.Migrate(db); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	sessions := database.NewSessionRepository(db)

	sealingKey := cfg.TokenSealingKey
	if sealingKey == "" {
		sealingKey = cfg.JWTSecret
	}
	sealer, err := utils.NewTokenSealer(sealingKey)
	if err != nil {
		logger.Fatal("Failed to set up token sealing", zap.Error(err))
	}

	loc, err := time.LoadLocation(cfg.BusinessTZ)
	if err != nil {
		logger.Warn("Unknown BUSINESS_TIMEZONE, using UTC", zap.String("timezone", cfg.BusinessTZ))
		loc = time.UTC
	}

	// Saves are serialized across instances when Redis is configured.
	var guard editor.SaveGuard = editor.NewMemoryGuard()
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn("Redis unreachable, save guard stays in-process", zap.Error(err))
			rdb.Close()
			rdb = nil
		} else {
			guard = editor.NewRedisGuard(rdb, cfg.SaveLockTTL, logger)
			logger.Info("Using Redis save guard", zap.String("addr", cfg.RedisAddr))
		}
		cancel()
	}

	firebase.Init()
	storageClient := firebase.NewStorageClient()

	stop := make(chan struct{})
	registry := editor.NewRegistry(cfg.SessionIdle)
	registry.StartCleanup(time.Minute, stop)

	gw := &handlers.Gateway{
		Sessions:      sessions,
		Registry:      registry,
		Sealer:        sealer,
		InitData:      telegram.NewValidator(cfg.BotToken, cfg.InitDataMaxAge),
		Guard:         guard,
		Storage:       storageClient,
		Logger:        logger,
		APIBaseURL:    cfg.APIBaseURL,
		HTTPClient:    &http.Client{Timeout: cfg.UpstreamTimeout},
		Location:      loc,
		SessionTTL:    cfg.SessionTTL,
		LoginAttempts: cfg.LoginAttempts,
		LoginBackoff:  cfg.LoginBackoff,
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	defer limiter.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	// Limit multipart form memory to 10MB
	r.MaxMultipartMemory = 10 << 20

	origins := []string{}
	if cfg.FrontendURL != "" {
		origins = append(origins, cfg.FrontendURL)
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
		logger.Warn("No CORS origins configured, defaulting to http://localhost:3000")
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Init-Data", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
	}))

	routes.SetupRoutes(r, gw, limiter)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Expired sessions are purged hourly.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				n, err := sessions.PurgeExpired(time.Now())
				if err != nil {
					logger.Warn("Purging sessions failed", zap.Error(err))
				} else if n > 0 {
					logger.Info("Purged sessions", zap.Int64("count", n))
				}
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")
	close(stop)

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Warn("Error closing Redis client", zap.Error(err))
		}
	}

	sqlDB, err := db.DB()
	if err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Warn("Error closing database connection", zap.Error(err))
		} else {
			logger.Info("Database connection closed")
		}
	}

	logger.Info("Server exited gracefully")
}
