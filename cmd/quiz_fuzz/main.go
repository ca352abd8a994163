package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"quiz-audit/internal/config"
	"quiz-audit/internal/db"
	"quiz-audit/internal/quiz"
	"quiz-audit/internal/repository"
	"quiz-audit/internal/service"
)

// quiz_fuzz corre el fuzz de distribucion y la busqueda de alcanzabilidad
// sobre el quiz configurado. Imprime el reporte en stdout y sale con 0 solo
// si no hay dominancia y todos los personajes son alcanzables.
func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("load config", zap.Error(err))
		return 1
	}

	q, err := quiz.Load(cfg.ContentPath)
	if err != nil {
		logger.Error("load quiz content", zap.Error(err), zap.String("path", cfg.ContentPath))
		return 1
	}
	model := quiz.NewCosineModel(q)

	var recorders []service.AuditRecorder

	pool, err := db.NewPool(ctx, cfg)
	switch {
	case errors.Is(err, db.ErrDisabled):
	case err != nil:
		logger.Warn("db pool", zap.Error(err))
	default:
		defer pool.Close()
		repo := repository.NewPgAuditRepository(pool)
		if err := db.Ping(ctx, pool); err != nil {
			logger.Warn("db ping failed", zap.Error(err))
		} else if err := repo.EnsureSchema(ctx); err != nil {
			logger.Warn("audit schema", zap.Error(err))
		} else {
			recorders = append(recorders, repo)
		}
	}

	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			recorders = append(recorders, service.NewRedisAuditStore(redisClient, time.Duration(cfg.AuditTTLMinutes)*time.Minute))
		}
		cancel()
	}

	auditSvc := service.NewAuditService(q, model, logger, service.RunParams{
		Rounds:   cfg.FuzzRounds,
		Attempts: cfg.ReverseAttempts,
		Seed:     cfg.Seed,
	}, recorders...)

	report, err := auditSvc.Run(ctx, service.RunParams{})
	if err != nil {
		logger.Error("audit failed", zap.Error(err))
		return 1
	}

	if err := service.WriteReport(os.Stdout, report); err != nil {
		logger.Error("write report", zap.Error(err))
		return 1
	}
	return service.ExitCode(report)
}
