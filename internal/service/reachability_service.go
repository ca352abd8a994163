package service

import (
	"context"

	"go.uber.org/zap"

	"quiz-audit/internal/domain"
	"quiz-audit/internal/quiz"
)

// ReachabilitySearch busca, para cada personaje, una partida que el modelo
// mapee a ese personaje. Primero por muestreo aleatorio y, si se agota el
// presupuesto, con una construccion greedy por similitud de rasgos.
//
// Un resultado no alcanzable significa que esta heuristica no encontro
// testigo (sin backtracking ni reinicios), no que no exista ninguno.
type ReachabilitySearch struct {
	model    quiz.ScoringModel
	quiz     *domain.Quiz
	attempts int
	logger   *zap.Logger
}

func NewReachabilitySearch(model quiz.ScoringModel, q *domain.Quiz, attempts int, logger *zap.Logger) *ReachabilitySearch {
	if logger == nil {
		logger = zap.NewNop()
	}
	if attempts < 0 {
		attempts = 0
	}
	return &ReachabilitySearch{
		model:    model,
		quiz:     q,
		attempts: attempts,
		logger:   logger,
	}
}

// SearchAll evalua cada personaje de forma independiente, en orden.
// El contexto solo se consulta entre personajes.
func (s *ReachabilitySearch) SearchAll(ctx context.Context, src SequenceSource) ([]domain.ReachabilityResult, error) {
	results := make([]domain.ReachabilityResult, 0, len(s.quiz.Characters))
	for _, target := range s.quiz.Characters {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, s.Search(src, target))
	}
	return results, nil
}

// Search corre las dos fases para un personaje, cortando en el primer exito.
func (s *ReachabilitySearch) Search(src SequenceSource, target domain.Character) domain.ReachabilityResult {
	length := len(s.quiz.Questions)
	for attempt := 1; attempt <= s.attempts; attempt++ {
		seq := src.Sequence(length)
		if s.model.Match(seq).Character.ID == target.ID {
			return domain.ReachabilityResult{
				Target:    target,
				Reachable: true,
				Method:    domain.SearchMethodRandom,
				Witness:   seq,
				Attempts:  attempt,
			}
		}
	}

	path, traits := s.GreedyPath(target)
	landed := s.model.Match(path).Character
	if landed.ID == target.ID {
		s.logger.Debug("reached by greedy fallback", zap.String("character", target.ID), zap.Stringer("path", path))
		return domain.ReachabilityResult{
			Target:       target,
			Reachable:    true,
			Method:       domain.SearchMethodGreedy,
			Witness:      path,
			Attempts:     s.attempts,
			GreedyPath:   path,
			GreedyTraits: &traits,
		}
	}

	s.logger.Warn("character not reached",
		zap.String("character", target.ID),
		zap.String("landed_on", landed.ID),
		zap.Stringer("greedy_path", path),
	)
	return domain.ReachabilityResult{
		Target:       target,
		Reachable:    false,
		Method:       domain.SearchMethodGreedy,
		Attempts:     s.attempts,
		LandedOn:     &landed,
		GreedyPath:   path,
		GreedyTraits: &traits,
	}
}

// GreedyPath arma una partida pregunta por pregunta eligiendo la respuesta que
// deja el vector acumulado con mayor similitud coseno al objetivo.
//
// La mejor puntuacion arranca en -1 y solo se reemplaza con ">" estricto:
// en empate se queda la opcion anterior (A antes que B). NaN nunca supera al
// mejor actual, asi que un objetivo de magnitud cero elige siempre A.
func (s *ReachabilitySearch) GreedyPath(target domain.Character) (domain.AnswerSequence, domain.TraitVector) {
	var acc domain.TraitVector
	path := make(domain.AnswerSequence, 0, len(s.quiz.Questions))

	for _, question := range s.quiz.Questions {
		bestIdx := 0
		bestScore := -1.0
		for ai, answer := range question.Answers {
			sim := domain.CosineSimilarity(acc.Add(answer.Traits), target.Traits)
			if sim > bestScore {
				bestScore = sim
				bestIdx = ai
			}
		}
		acc = acc.Add(question.Answers[bestIdx].Traits)
		path = append(path, bestIdx)
	}
	return path, acc
}
