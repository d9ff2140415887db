package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/notemark/noteservice/handlers"
	"github.com/notemark/noteservice/internal/config"
	"github.com/notemark/noteservice/internal/database"
	"github.com/notemark/noteservice/internal/note/handler"
	"github.com/notemark/noteservice/internal/note/repository"
	"github.com/notemark/noteservice/internal/note/service"
	"github.com/notemark/noteservice/pkg/logger"
	"github.com/notemark/noteservice/pkg/metrics"
	"github.com/notemark/noteservice/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v rate_limit=%v", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.RateLimit.Enabled)

	r := gin.New()

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	// (Keep this intentionally simple — production should use a stricter policy.)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	// Global middlewares: logging + recovery
	r.Use(gin.Logger(), gin.Recovery())

	// Connect to Redis early so the rate-limiter can use it when configured
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// Optional global rate limiter (per client IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// readiness endpoint; startup aborts before serving when MongoDB is down,
	// so once this responds the backend connection exists
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ready", "uptime": time.Since(startTime).String()})
	})

	ctx := context.Background()

	// Connect to MongoDB with retry/backoff to tolerate startup races.
	const maxAttempts = 5
	backoff := time.Second
	var client, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
	for attempt := 2; errConn != nil && attempt <= maxAttempts; attempt++ {
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt-1, maxAttempts, errConn)
		time.Sleep(backoff)
		backoff *= 2
		client, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
	}
	if errConn != nil {
		logger.Fatalf("could not connect to MongoDB after %d attempts: %v", maxAttempts, errConn)
	}
	defer func() { _ = client.Disconnect(ctx) }()
	logger.Infof("connected to MongoDB database %q", cfg.MongoDB.Database)

	col := client.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection)
	repo, err := repository.NewMongoRepo(ctx, col)
	if err != nil {
		logger.Fatalf("failed to initialize note repository: %v", err)
	}
	svc := service.New(repo, service.Limits{
		DefaultPageSize: cfg.Pagination.DefaultLimit,
		MaxPageSize:     cfg.Pagination.MaxLimit,
	})
	h := handler.New(svc, cfg.Pagination.DefaultLimit)
	h.Register(r)

	// Minimal Swagger UI + JSON for API documentation
	handlers.RegisterSwagger(r)

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting note service on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
