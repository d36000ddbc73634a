package main

import (
	"context"
	"log"
	"time"

	"civic-pulse/config"
	"civic-pulse/internal/handler"
	"civic-pulse/internal/identity"
	"civic-pulse/internal/linkpolicy"
	"civic-pulse/internal/metrics"
	"civic-pulse/internal/proxy"
	"civic-pulse/internal/redis"
	"civic-pulse/internal/repository"
	"civic-pulse/internal/server"
	"civic-pulse/internal/services"
	"civic-pulse/internal/storage"
	"civic-pulse/internal/websocket"
	"civic-pulse/pkg/database"
	"civic-pulse/pkg/events"
	"civic-pulse/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	l := logger.New(cfg.LogMode)
	logger.SetGlobalLogger(l)
	defer l.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := repository.InitSchema(db); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	pollRepo := repository.NewPollRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	userRepo := repository.NewUserRepository(db)

	hasher := identity.NewIPHasher(cfg.IPHashKey)
	access := proxy.NewAccessControl(userRepo)
	authService := services.NewAuthService(userRepo, cfg)

	hub := websocket.NewHub()
	go hub.Run(ctx)

	var (
		redisClient *goredis.Client
		limiter     *redis.RateLimiter
		publisher   events.Publisher
		cache       services.StatsCache
	)
	if cfg.RedisEnabled {
		redis.Initialize(redis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		redisClient = redis.GetClient()
		if err := redis.Ping(ctx, redisClient); err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisClient.Close()

		limiter = redis.NewRateLimiter(redisClient, redis.RateLimitConfig{
			VoteLimit:    cfg.VoteRateLimit,
			VoteWindow:   time.Duration(cfg.VoteRateWindowSec) * time.Second,
			OptionLimit:  cfg.OptionRateLimit,
			OptionWindow: time.Duration(cfg.OptionRateWindowSec) * time.Second,
		})
		cache = redis.NewStatsCache(redisClient, time.Duration(cfg.StatsCacheTTLSec)*time.Second)

		broker := events.NewRedisBroker(redisClient, l.Logger)
		publisher = broker
		bridge := websocket.NewRedisBridge(broker, hub)
		if err := bridge.Run(ctx); err != nil {
			log.Fatalf("Failed to subscribe to poll events: %v", err)
		}
	} else {
		l.Logger.Warn("redis disabled: no rate limiting, no statistics cache, live updates stay on this instance")
		publisher = websocket.NewLocalPublisher(hub)
	}

	var photoStore services.PhotoStore
	if cfg.S3Enabled() {
		s3Client, err := storage.NewClient(ctx, storage.S3Config{
			Region:     cfg.S3Region,
			Bucket:     cfg.S3Bucket,
			AccessKey:  cfg.S3AccessKey,
			SecretKey:  cfg.S3SecretKey,
			Endpoint:   cfg.S3Endpoint,
			PublicBase: cfg.S3PublicBase,
		})
		if err != nil {
			log.Fatalf("Failed to create S3 client: %v", err)
		}
		photoStore = s3Client
	} else {
		l.Logger.Info("s3 not configured: option photos are stored inline")
	}
	photos := services.NewPhotoService(linkpolicy.NewPhotoValidator(cfg.PhotoMaxBytes), photoStore)

	pollService := services.NewPollService(
		pollRepo,
		voteRepo,
		userRepo,
		identity.NewResolver(hasher),
		photos,
		access,
		services.PollServiceOptions{
			Publisher: publisher,
			Cache:     cache,
			Metrics:   m,
			Logger:    l,
		},
	)

	srv := server.New(cfg, l)
	srv.SetupRoutes(&server.Handlers{
		Poll: handler.NewPollHandler(pollService, l),
		User: handler.NewUserHandler(userRepo),
		Live: websocket.NewHandler(hub, websocket.NewWatchAuthorizer(pollRepo), pollService, l.Logger),
	}, server.Dependencies{
		Auth:     authService,
		Access:   access,
		Limiter:  limiter,
		Hasher:   hasher,
		Metrics:  m,
		Registry: registry,
		DB:       db,
		Redis:    redisClient,
	})

	if err := srv.Start(); err != nil {
		l.Logger.Error("server stopped with error", zap.Error(err))
	}
}
