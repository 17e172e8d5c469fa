package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/poolscout/poolscout/internal/api"
	"github.com/poolscout/poolscout/internal/api/handlers"
	"github.com/poolscout/poolscout/internal/cache"
	"github.com/poolscout/poolscout/internal/config"
	"github.com/poolscout/poolscout/internal/database"
	"github.com/poolscout/poolscout/internal/logging"
	"github.com/poolscout/poolscout/internal/middleware"
	"github.com/poolscout/poolscout/internal/services"
	"github.com/poolscout/poolscout/internal/sharing"
	"github.com/poolscout/poolscout/internal/telegram"
	"github.com/poolscout/poolscout/internal/telemetry"
)

func main() {
	// .env is optional; real deployments set environment variables directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.Environment)

	shutdownTracing, err := telemetry.Init(context.Background(), cfg.Environment == "development")
	if err != nil {
		logger.WithError(err).Warn("Tracing disabled")
		shutdownTracing = func(context.Context) error { return nil }
	}

	// The engine runs without external state; persistence and caching attach
	// when their backends are reachable.
	var ledgerRepo services.LedgerRepository
	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		logger.WithError(err).Warn("Running without PostgreSQL; ledger persistence disabled")
		db = nil
	} else {
		defer db.Close()
		ledgerRepo = database.NewLedgerRepository(db.Pool)
	}

	redis, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		logger.WithError(err).Warn("Running without Redis; prediction caching disabled")
		redis = nil
	}
	if redis != nil {
		defer redis.Close()
	}

	cacheTTL, err := time.ParseDuration(cfg.Engine.PredictionCacheTTL)
	if err != nil {
		cacheTTL = 5 * time.Minute
	}
	jwtExpiry, err := time.ParseDuration(cfg.Security.JWTExpiry)
	if err != nil {
		jwtExpiry = 24 * time.Hour
	}

	history := services.NewHistoryStore(cfg.Engine.RetentionDays)
	predictor := services.NewHeuristicPredictor(cfg.Engine.WindowSize)
	scorer := services.NewRiskScorer(cfg.Engine)
	normalizer := services.NewNormalizer(logger)
	generator := services.NewStrategyGenerator(cfg.Engine, scorer, predictor, history, logger)
	ledger := services.NewCopyTradingService(ledgerRepo, logger)

	predictionCache := cache.NewPredictionCache(redis, cacheTTL, logger)
	proofs := sharing.NewProofBuilder(cfg.Engine.AgentVersion)
	notifier := telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger)
	auth := middleware.NewAuthMiddleware(cfg.Security.JWTSecret, jwtExpiry)

	engineHandler := handlers.NewEngineHandler(
		normalizer, generator, predictor, history,
		predictionCache, proofs, notifier, cfg.Engine.MinAPY, logger,
	)
	copyTradingHandler := handlers.NewCopyTradingHandler(ledger)
	healthHandler := handlers.NewHealthHandler(db, redis)

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	api.SetupRoutes(router, healthHandler, engineHandler, copyTradingHandler, auth)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.WithError(err).Warn("Failed to flush traces")
	}

	logger.Info("Server exited")
}
