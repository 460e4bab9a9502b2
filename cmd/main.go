package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"julianmorley.ca/stockpilot/inventory-api/internal/router"
	"julianmorley.ca/stockpilot/inventory-api/pkg/ai"
	"julianmorley.ca/stockpilot/inventory-api/pkg/analysis"
	"julianmorley.ca/stockpilot/inventory-api/pkg/auth"
	"julianmorley.ca/stockpilot/inventory-api/pkg/global"
	"julianmorley.ca/stockpilot/inventory-api/pkg/logger"
	"julianmorley.ca/stockpilot/inventory-api/pkg/mongo"
	"julianmorley.ca/stockpilot/inventory-api/pkg/redis"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded, using process environment: %v", err)
	}

	cfg := global.LoadConfig()
	zlog, err := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if cfg.IsProduction() && cfg.JWTSecret == "change-me" {
		zlog.Fatal("JWT_SECRET must be set in production")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := global.GetDefaultTimer()
	store, err := mongo.Connect(connectCtx, cfg.MongoURI, cfg.MongoDatabase, zlog)
	cancel()
	if err != nil {
		zlog.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer func() { _ = store.Close(context.Background()) }()

	if err := store.EnsureIndexes(ctx); err != nil {
		zlog.Warn("failed to ensure indexes", zap.Error(err))
	}

	redisClient := redis.NewClient(cfg.RedisAddress, cfg.RedisPassword)
	defer func() { _ = redisClient.Close() }()
	itemCache := redis.NewItemCache(redisClient, 0)
	if err := itemCache.Ping(ctx); err != nil {
		zlog.Warn("redis unreachable, item reads will go to MongoDB", zap.String("address", cfg.RedisAddress), zap.Error(err))
	}

	aiService := ai.NewService(ai.Config{Enabled: cfg.AI.Enabled, Timeout: cfg.AI.Timeout}, zlog)
	strategy, err := ai.NewOpenAIStrategy(ai.OpenAIConfig{
		Endpoint:       cfg.AI.Endpoint,
		APIKey:         cfg.AI.APIKey,
		DeploymentName: cfg.AI.DeploymentName,
		MaxRetries:     2,
	}, zlog)
	if err != nil {
		zlog.Warn("AI strategy not configured, analysis will use rule-based fallbacks", zap.Error(err))
	} else {
		aiService.RegisterStrategy("azure-openai", strategy)
	}

	analysisService := analysis.NewService(store, aiService, analysis.Config{
		CacheTTL:        cfg.Analysis.CacheTTL,
		CacheMaxEntries: cfg.Analysis.CacheMaxEntries,
		Parallel:        cfg.Analysis.Parallel,
		FetchTimeout:    cfg.Analysis.FetchTimeout,
	}, zlog)

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)

	handler := router.NewHandler(router.Deps{
		Store:    store,
		Cache:    itemCache,
		AI:       aiService,
		Analysis: analysisService,
		Tokens:   tokens,
		Log:      zlog,
	})
	engine := router.InitEngine(cfg.IsProduction(), cfg.CORSOrigins, zlog)
	router.InitializeRoutes(engine, handler, tokens)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("server is running", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("failed to run server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancelShutdown := global.GetDefaultTimer()
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
}
