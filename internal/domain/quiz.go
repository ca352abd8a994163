package domain

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// AnswersPerQuestion es fijo: opciones A, B, C y D.
	AnswersPerQuestion = 4
	// QuestionCount es el largo de una partida completa del quiz publicado.
	QuestionCount = 12
)

const answerAlphabet = "ABCD"

var (
	ErrInvalidQuiz     = errors.New("invalid quiz")
	ErrInvalidSequence = errors.New("invalid answer sequence")
	ErrUnknownTrait    = errors.New("unknown trait")
)

type Answer struct {
	Text   string      `json:"text"`
	Traits TraitVector `json:"traits"`
}

type Question struct {
	Index   int      `json:"index"`
	Prompt  string   `json:"prompt"`
	Answers []Answer `json:"answers"`
}

// Character es una categoria de resultado del quiz.
type Character struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Traits      TraitVector `json:"traits"`
}

// Quiz agrupa el contenido inmutable que consume el harness.
type Quiz struct {
	Title      string      `json:"title"`
	Questions  []Question  `json:"questions"`
	Characters []Character `json:"characters"`
}

// Validate verifica los invariantes estructurales del contenido.
func (q *Quiz) Validate() error {
	if q == nil {
		return fmt.Errorf("%w: nil quiz", ErrInvalidQuiz)
	}
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidQuiz)
	}
	for i, question := range q.Questions {
		if len(question.Answers) != AnswersPerQuestion {
			return fmt.Errorf("%w: question %d has %d answers, want %d", ErrInvalidQuiz, i, len(question.Answers), AnswersPerQuestion)
		}
	}
	if len(q.Characters) == 0 {
		return fmt.Errorf("%w: no characters", ErrInvalidQuiz)
	}
	ids := make(map[string]struct{}, len(q.Characters))
	names := make(map[string]struct{}, len(q.Characters))
	for i, c := range q.Characters {
		if strings.TrimSpace(c.ID) == "" || strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("%w: character %d needs id and name", ErrInvalidQuiz, i)
		}
		if _, ok := ids[c.ID]; ok {
			return fmt.Errorf("%w: duplicate character id %q", ErrInvalidQuiz, c.ID)
		}
		if _, ok := names[c.Name]; ok {
			return fmt.Errorf("%w: duplicate character name %q", ErrInvalidQuiz, c.Name)
		}
		ids[c.ID] = struct{}{}
		names[c.Name] = struct{}{}
	}
	return nil
}

// CharacterByID busca un personaje por id.
func (q *Quiz) CharacterByID(id string) (Character, bool) {
	for _, c := range q.Characters {
		if c.ID == id {
			return c, true
		}
	}
	return Character{}, false
}

// Accumulate suma los deltas de las respuestas elegidas.
// Asume una secuencia ya validada contra el quiz.
func (q *Quiz) Accumulate(seq AnswerSequence) TraitVector {
	var acc TraitVector
	for qi, ai := range seq {
		acc = acc.Add(q.Questions[qi].Answers[ai].Traits)
	}
	return acc
}

// CheckSequence valida largo y rango de indices contra el quiz.
func (q *Quiz) CheckSequence(seq AnswerSequence) error {
	if len(seq) != len(q.Questions) {
		return fmt.Errorf("%w: length %d, want %d", ErrInvalidSequence, len(seq), len(q.Questions))
	}
	for i, idx := range seq {
		if idx < 0 || idx >= len(q.Questions[i].Answers) {
			return fmt.Errorf("%w: index %d out of range at position %d", ErrInvalidSequence, idx, i)
		}
	}
	return nil
}

// AnswerSequence es una partida: un indice 0..3 por pregunta, en orden.
type AnswerSequence []int

// String renderiza la secuencia sobre el alfabeto ABCD.
func (s AnswerSequence) String() string {
	var b strings.Builder
	b.Grow(len(s))
	for _, idx := range s {
		if idx < 0 || idx >= len(answerAlphabet) {
			b.WriteByte('?')
			continue
		}
		b.WriteByte(answerAlphabet[idx])
	}
	return b.String()
}

// MarshalText permite serializar witnesses como "ABCD..." en JSON.
func (s AnswerSequence) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *AnswerSequence) UnmarshalText(text []byte) error {
	parsed, err := ParseAnswerSequence(string(text), -1)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseAnswerSequence interpreta "ABCD..." (case-insensitive, ignora espacios y corchetes).
// Con length < 0 no se exige largo.
func ParseAnswerSequence(s string, length int) (AnswerSequence, error) {
	clean := strings.ToUpper(strings.Trim(strings.TrimSpace(s), "[]"))
	seq := make(AnswerSequence, 0, len(clean))
	for i, r := range clean {
		if r == ' ' {
			continue
		}
		idx := strings.IndexRune(answerAlphabet, r)
		if idx < 0 {
			return nil, fmt.Errorf("%w: unexpected %q at position %d", ErrInvalidSequence, r, i)
		}
		seq = append(seq, idx)
	}
	if length >= 0 && len(seq) != length {
		return nil, fmt.Errorf("%w: length %d, want %d", ErrInvalidSequence, len(seq), length)
	}
	return seq, nil
}
