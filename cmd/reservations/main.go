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

	"github.com/reservio/reservio/handlers"
	"github.com/reservio/reservio/internal/config"
	"github.com/reservio/reservio/internal/database"
	"github.com/reservio/reservio/internal/repository"
	"github.com/reservio/reservio/internal/reservations"
	"github.com/reservio/reservio/pkg/authclient"
	"github.com/reservio/reservio/pkg/logger"
	"github.com/reservio/reservio/pkg/metrics"
	"github.com/reservio/reservio/pkg/middleware"
)

var startTime = time.Now()

// Reservations service: CRUD over reservation documents, protected by the
// auth guard which delegates credential checks to the remote authority.
func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	if cfg.Auth.URL == "" {
		logger.Fatalf("environment variable AUTH_URL is required")
	}

	ctx := context.Background()
	client, err := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
	if err != nil {
		logger.Fatalf("could not connect to MongoDB: %v", err)
	}
	defer func() { _ = client.Disconnect(ctx) }()

	repo := repository.NewMongo[reservations.Reservation](client.Database(cfg.MongoDB.Database).Collection("reservations"))
	svc := reservations.NewService(repo)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	if cfg.RateLimit.Enabled {
		r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := client.Ping(c.Request.Context(), nil); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "uptime": time.Since(startTime).String()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "uptime": time.Since(startTime).String()})
	})

	authority := authclient.New(cfg.Auth.URL, cfg.Auth.Timeout)
	guard := middleware.AuthGuard(authority, cfg.Auth.Timeout)
	handlers.NewReservationsHandler(svc).Register(r.Group("/"), guard)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting reservations service on %s (authority=%s)", addr, cfg.Auth.URL)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
