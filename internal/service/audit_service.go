package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quiz-audit/internal/domain"
	"quiz-audit/internal/quiz"
)

// AuditRecorder persiste reportes terminados (Redis, Postgres, memoria).
type AuditRecorder interface {
	Save(ctx context.Context, report domain.AuditReport) error
}

// RunParams ajusta una corrida. Valores en cero toman los defaults del servicio;
// Seed en cero pide una semilla nueva.
type RunParams struct {
	Rounds   int
	Attempts int
	Seed     uint64
}

// AuditService orquesta fuzz de distribucion + busqueda de alcanzabilidad.
type AuditService struct {
	quiz      *domain.Quiz
	model     quiz.ScoringModel
	logger    *zap.Logger
	defaults  RunParams
	recorders []AuditRecorder
	now       func() time.Time
	seedFn    func() (uint64, error)
}

func NewAuditService(q *domain.Quiz, model quiz.ScoringModel, logger *zap.Logger, defaults RunParams, recorders ...AuditRecorder) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	var active []AuditRecorder
	for _, r := range recorders {
		if r != nil {
			active = append(active, r)
		}
	}
	return &AuditService{
		quiz:      q,
		model:     model,
		logger:    logger,
		defaults:  defaults,
		recorders: active,
		now:       func() time.Time { return time.Now().UTC() },
		seedFn:    NewSeed,
	}
}

func (s *AuditService) Quiz() *domain.Quiz {
	return s.quiz
}

func (s *AuditService) Model() quiz.ScoringModel {
	return s.model
}

// Run ejecuta una auditoria completa. Los errores de los recorders se loguean
// y no alteran el veredicto.
func (s *AuditService) Run(ctx context.Context, params RunParams) (domain.AuditReport, error) {
	params = s.resolve(params)
	if params.Seed == 0 {
		seed, err := s.seedFn()
		if err != nil {
			return domain.AuditReport{}, err
		}
		params.Seed = seed
	}

	report := domain.AuditReport{
		ID:        uuid.NewString(),
		QuizTitle: s.quiz.Title,
		Seed:      params.Seed,
		Attempts:  params.Attempts,
		StartedAt: s.now(),
	}
	logger := s.logger.With(zap.String("audit_id", report.ID), zap.Uint64("seed", params.Seed))
	logger.Info("audit started", zap.Int("rounds", params.Rounds), zap.Int("attempts", params.Attempts))

	sampler := NewSampler(params.Seed)

	analyzer := NewDistributionAnalyzer(s.model, s.quiz, logger)
	dist, err := analyzer.Analyze(sampler, params.Rounds)
	if err != nil {
		return domain.AuditReport{}, fmt.Errorf("distribution: %w", err)
	}
	report.Distribution = dist

	search := NewReachabilitySearch(s.model, s.quiz, params.Attempts, logger)
	results, err := search.SearchAll(ctx, sampler)
	if err != nil {
		return domain.AuditReport{}, fmt.Errorf("reachability: %w", err)
	}
	report.Reachability = results
	report.Passed = report.Verdict()
	report.FinishedAt = s.now()

	logger.Info("audit finished",
		zap.Bool("passed", report.Passed),
		zap.Int("unreachable", report.UnreachableCount()),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)

	for _, rec := range s.recorders {
		if err := rec.Save(ctx, report); err != nil {
			logger.Warn("audit recorder failed", zap.Error(err))
		}
	}
	return report, nil
}

func (s *AuditService) resolve(params RunParams) RunParams {
	if params.Rounds <= 0 {
		params.Rounds = s.defaults.Rounds
	}
	if params.Attempts <= 0 {
		params.Attempts = s.defaults.Attempts
	}
	if params.Seed == 0 {
		params.Seed = s.defaults.Seed
	}
	return params
}
