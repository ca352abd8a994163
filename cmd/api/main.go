package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"quiz-audit/internal/config"
	"quiz-audit/internal/db"
	apihttp "quiz-audit/internal/http"
	"quiz-audit/internal/quiz"
	"quiz-audit/internal/repository"
	"quiz-audit/internal/service"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	q, err := quiz.Load(cfg.ContentPath)
	if err != nil {
		logger.Fatal("load quiz content", zap.Error(err))
	}
	model := quiz.NewCosineModel(q)

	var history repository.AuditRepository
	pool, err := db.NewPool(ctx, cfg)
	switch {
	case errors.Is(err, db.ErrDisabled):
		logger.Info("audit history disabled")
	case err != nil:
		logger.Fatal("db connect", zap.Error(err))
	default:
		defer pool.Close()
		repo := repository.NewPgAuditRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			logger.Fatal("audit schema", zap.Error(err))
		}
		history = repo
	}

	store := service.NewMemoryAuditStore()
	rateWindow := time.Duration(cfg.AuditRateSecs) * time.Second
	var limiter service.RateLimiter
	if cfg.AuditRateLimit > 0 {
		limiter = service.NewMemoryRateLimiter(rateWindow, cfg.AuditRateLimit)
	}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using memory store", zap.Error(err))
		} else {
			store = service.NewRedisAuditStore(redisClient, time.Duration(cfg.AuditTTLMinutes)*time.Minute)
			if cfg.AuditRateLimit > 0 {
				limiter = service.NewRedisRateLimiter(redisClient, rateWindow, cfg.AuditRateLimit)
			}
		}
		cancel()
	}

	recorders := []service.AuditRecorder{store}
	if history != nil {
		recorders = append(recorders, history)
	}
	auditSvc := service.NewAuditService(q, model, logger, service.RunParams{
		Rounds:   cfg.FuzzRounds,
		Attempts: cfg.ReverseAttempts,
		Seed:     cfg.Seed,
	}, recorders...)

	auditHandler := apihttp.NewAuditHandler(logger, auditSvc, store, history, limiter, cfg.APIMaxRounds, cfg.APIMaxAttempts)
	router := apihttp.NewRouter(logger, auditHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort), zap.String("quiz", q.Title))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
