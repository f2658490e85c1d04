package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/d60-Lab/microblog/config"
	"github.com/d60-Lab/microblog/internal/api"
	"github.com/d60-Lab/microblog/internal/api/handler"
	"github.com/d60-Lab/microblog/internal/api/middleware"
	"github.com/d60-Lab/microblog/internal/cache"
	"github.com/d60-Lab/microblog/internal/events"
	"github.com/d60-Lab/microblog/internal/media"
	"github.com/d60-Lab/microblog/pkg/database"
	"github.com/d60-Lab/microblog/pkg/jwt"
	"github.com/d60-Lab/microblog/pkg/logger"
	"github.com/d60-Lab/microblog/pkg/tracing"
)

// @title microblog API
// @version 1.0
// @description Posts, groups, comments, follows and the follow feed.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	makeStaff := flag.String("make-staff", "", "grant staff rights to the given username and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		logger.Fatal("init tracing", zap.Error(err))
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			logger.Fatal("init sentry", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Fatal("init database", zap.Error(err))
	}

	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Expire)
	pageCache := newPageCache(ctx, cfg)
	publisher, closePublisher := newPublisher(cfg)
	defer closePublisher()

	services := api.NewServices(db, api.Deps{
		Tokens:       tokens,
		Invalidator:  pageCache,
		Publisher:    publisher,
		Storage:      media.NewLocalStorage(cfg.Media.Root, cfg.Media.MaxUploadB),
		FeedPageSize: cfg.Feed.PageSize,
	})

	if *makeStaff != "" {
		if err := services.Users.PromoteStaff(ctx, *makeStaff); err != nil {
			logger.Fatal("promote staff", zap.String("username", *makeStaff), zap.Error(err))
		}
		logger.Info("staff granted", zap.String("username", *makeStaff))
		return
	}

	// 启动时清空整页缓存，避免上一次进程留下的旧页面
	if err := pageCache.Clear(ctx); err != nil {
		logger.Warn("clear page cache", zap.Error(err))
	}

	gin.SetMode(cfg.Server.Mode)
	serviceName := ""
	if cfg.Tracing.Enabled {
		serviceName = cfg.Tracing.ServiceName
	}
	router := api.NewRouter(handler.NewHandler(services, cfg.Feed.PageSize), api.Options{
		ServiceName: serviceName,
		Tokens:      tokens,
		PageCache:   pageCache,
		RateLimit:   middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		MediaRoot:   cfg.Media.Root,
		Swagger:     !cfg.IsRelease(),
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "baggage", "sentry-trace", "traceparent"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      corsHandler.Handler(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server started", zap.String("addr", srv.Addr), zap.String("mode", cfg.Server.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}

// newPageCache redis 未配置或不可达时退化为不缓存
func newPageCache(ctx context.Context, cfg *config.Config) cache.PageCache {
	if cfg.Redis.Addr == "" {
		return cache.NoopPageCache{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if cfg.Tracing.Enabled {
		if err := redisotel.InstrumentTracing(client); err != nil {
			logger.Warn("instrument redis tracing", zap.Error(err))
		}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, page cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		_ = client.Close()
		return cache.NoopPageCache{}
	}
	return cache.NewRedisPageCache(client, cfg.Cache.PageTTL)
}

// newPublisher NATS 未配置或连不上时不发布事件；否则经异步队列投递
func newPublisher(cfg *config.Config) (events.Publisher, func()) {
	if cfg.NATS.URL == "" {
		return events.NopPublisher{}, func() {}
	}
	nc, err := nats.Connect(cfg.NATS.URL,
		nats.Name("microblog"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		logger.Warn("nats unavailable, events disabled", zap.String("url", cfg.NATS.URL), zap.Error(err))
		return events.NopPublisher{}, func() {}
	}

	async := events.NewAsyncPublisher(events.NewNATSPublisher(nc, cfg.NATS.SubjectPrefix), 10000)
	stop := async.Start(4)
	return async, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := stop(ctx); err != nil {
			logger.Warn("drain event queue", zap.Error(err))
		}
		_ = nc.Drain()
	}
}
