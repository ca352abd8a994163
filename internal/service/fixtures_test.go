package service

import (
	"quiz-audit/internal/domain"
	"quiz-audit/internal/quiz"
)

// constantModel mapea cualquier partida al mismo personaje.
type constantModel struct {
	character domain.Character
	calls     int
}

func (m *constantModel) Match(seq domain.AnswerSequence) domain.MatchResult {
	m.calls++
	return domain.MatchResult{Character: m.character}
}

// scriptedSource devuelve secuencias predefinidas y luego repite la ultima.
type scriptedSource struct {
	seqs  []domain.AnswerSequence
	calls int
}

func (s *scriptedSource) Sequence(length int) domain.AnswerSequence {
	idx := s.calls
	if idx >= len(s.seqs) {
		idx = len(s.seqs) - 1
	}
	s.calls++
	return s.seqs[idx]
}

var (
	charX = domain.Character{ID: "x", Name: "X", Traits: domain.TraitVector{1, 0}}
	charY = domain.Character{ID: "y", Name: "Y", Traits: domain.TraitVector{0, 1}}
	charZ = domain.Character{ID: "z", Name: "Z", Traits: domain.TraitVector{0, 0, 1}}
)

// orthogonalQuiz es una pregunta con respuestas unitarias en dos ejes.
func orthogonalQuiz() *domain.Quiz {
	return &domain.Quiz{
		Title: "orthogonal",
		Questions: []domain.Question{{
			Answers: []domain.Answer{
				{Text: "a", Traits: domain.TraitVector{1, 0}},
				{Text: "b", Traits: domain.TraitVector{0, 1}},
				{Text: "c", Traits: domain.TraitVector{1, 0}},
				{Text: "d", Traits: domain.TraitVector{0, 1}},
			},
		}},
		Characters: []domain.Character{charX, charY},
	}
}

// repeatedQuiz repite las mismas cuatro respuestas en n preguntas.
func repeatedQuiz(n int, answers [4]domain.TraitVector, characters ...domain.Character) *domain.Quiz {
	q := &domain.Quiz{Title: "repeated", Characters: characters}
	for i := 0; i < n; i++ {
		question := domain.Question{Index: i}
		for ai, traits := range answers {
			question.Answers = append(question.Answers, domain.Answer{Text: string(rune('a' + ai)), Traits: traits})
		}
		q.Questions = append(q.Questions, question)
	}
	return q
}

func defaultQuiz() (*domain.Quiz, quiz.ScoringModel) {
	q, err := quiz.LoadDefault()
	if err != nil {
		panic(err)
	}
	return q, quiz.NewCosineModel(q)
}

func newCosine(q *domain.Quiz) quiz.ScoringModel {
	return quiz.NewCosineModel(q)
}
