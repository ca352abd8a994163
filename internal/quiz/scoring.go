package quiz

import (
	"math"
	"sort"

	"quiz-audit/internal/domain"
)

// ScoringModel mapea una partida completa a exactamente un personaje.
// Debe ser total y determinista: el harness la trata como caja negra.
type ScoringModel interface {
	Match(seq domain.AnswerSequence) domain.MatchResult
}

// CosineModel es el modelo publicado: acumula los deltas de rasgos de las
// respuestas y elige el personaje con mayor similitud coseno.
type CosineModel struct {
	quiz *domain.Quiz
}

func NewCosineModel(q *domain.Quiz) *CosineModel {
	return &CosineModel{quiz: q}
}

func (m *CosineModel) Quiz() *domain.Quiz {
	return m.quiz
}

// Match asume una secuencia valida (ver Quiz.CheckSequence).
// Una similitud indefinida (NaN) nunca supera a una definida; en empate gana
// el personaje anterior. Si ninguna esta definida gana el primero.
func (m *CosineModel) Match(seq domain.AnswerSequence) domain.MatchResult {
	acc := m.quiz.Accumulate(seq)

	scores := make([]domain.CharacterScore, len(m.quiz.Characters))
	best := 0
	bestSim := math.Inf(-1)
	for i, c := range m.quiz.Characters {
		sim := domain.CosineSimilarity(acc, c.Traits)
		scores[i] = domain.CharacterScore{CharacterID: c.ID, Name: c.Name}
		if math.IsNaN(sim) {
			continue
		}
		scores[i].Similarity = sim
		scores[i].Defined = true
		if sim > bestSim {
			bestSim = sim
			best = i
		}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Defined != scores[j].Defined {
			return scores[i].Defined
		}
		return scores[i].Similarity > scores[j].Similarity
	})

	return domain.MatchResult{
		Character: m.quiz.Characters[best],
		Traits:    acc,
		Scores:    scores,
	}
}
