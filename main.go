package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/reservio/reservio/handlers"
	"github.com/reservio/reservio/internal/blacklist"
	"github.com/reservio/reservio/internal/config"
	"github.com/reservio/reservio/internal/database"
	"github.com/reservio/reservio/internal/repository"
	"github.com/reservio/reservio/internal/users"
	"github.com/reservio/reservio/pkg/logger"
	"github.com/reservio/reservio/pkg/metrics"
	"github.com/reservio/reservio/pkg/middleware"
)

var startTime = time.Now()

// Authentication authority service: owns identities, issues tokens and
// answers the authenticate operation the other services delegate to.
func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v", cfg.MongoDB.URI != "", cfg.Redis.Host != "")

	r := gin.New()
	r.Use(corsMiddleware(), gin.Logger(), gin.Recovery())

	// Redis is optional: without it logout-revocation is disabled and the
	// redis rate limiter falls back to the in-memory one.
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	ctx := context.Background()
	client, err := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
	if err != nil {
		logger.Fatalf("could not connect to MongoDB: %v", err)
	}
	defer func() { _ = client.Disconnect(ctx) }()

	usersRepo := repository.NewMongo[users.User](client.Database(cfg.MongoDB.Database).Collection("users"))
	if err := usersRepo.EnsureUniqueIndex(ctx, "email"); err != nil {
		logger.Fatalf("could not ensure unique email index: %v", err)
	}
	usersSvc := users.NewService(usersRepo)

	authHandler := handlers.NewAuthHandler(cfg, usersSvc, blacklist.New(redisClient))
	authHandler.Register(r.Group("/"))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", func(c *gin.Context) {
		deps := gin.H{
			"mongo": client.Ping(c.Request.Context(), nil) == nil,
			"redis": redisClient == nil || redisClient.Ping(c.Request.Context()).Err() == nil,
		}
		status := http.StatusOK
		state := "ready"
		for _, ok := range deps {
			if ok != true {
				status = http.StatusServiceUnavailable
				state = "not_ready"
			}
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	// the authority protects its own whoami endpoint with the same guard,
	// verified in-process
	api := r.Group("/api/v1")
	api.GET("/me", middleware.AuthGuard(authHandler.Authenticator(), cfg.Auth.Timeout), func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"user": user})
	})

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting auth service on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}

// corsMiddleware is a permissive dev/test policy; production fronts this
// with a stricter gateway.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authentication, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
