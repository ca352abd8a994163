package quiz

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"quiz-audit/internal/domain"
)

//go:embed content/berserk.yaml
var berserkContent []byte

// ErrContentLoad marca cualquier falla al cargar el contenido del quiz. Es fatal:
// el harness no corre sobre contenido ausente o malformado.
var ErrContentLoad = errors.New("quiz content load failed")

type rawQuiz struct {
	Title      string         `yaml:"title"`
	Questions  []rawQuestion  `yaml:"questions"`
	Characters []rawCharacter `yaml:"characters"`
}

type rawQuestion struct {
	Prompt  string      `yaml:"prompt"`
	Answers []rawAnswer `yaml:"answers"`
}

type rawAnswer struct {
	Text   string             `yaml:"text"`
	Traits map[string]float64 `yaml:"traits"`
}

type rawCharacter struct {
	ID          string             `yaml:"id"`
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Traits      map[string]float64 `yaml:"traits"`
}

// LoadDefault devuelve el quiz de Berserk embebido en el binario.
func LoadDefault() (*domain.Quiz, error) {
	return Parse(berserkContent)
}

// Load lee el contenido desde path. Con path vacio usa el contenido embebido.
func Load(path string) (*domain.Quiz, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return LoadDefault()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrContentLoad, path, err)
	}
	q, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return q, nil
}

// Parse decodifica y valida un quiz completo de QuestionCount preguntas.
func Parse(data []byte) (*domain.Quiz, error) {
	q, err := decode(data)
	if err != nil {
		return nil, err
	}
	if len(q.Questions) != domain.QuestionCount {
		return nil, fmt.Errorf("%w: %d questions, want %d", ErrContentLoad, len(q.Questions), domain.QuestionCount)
	}
	return q, nil
}

func decode(data []byte) (*domain.Quiz, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty content", ErrContentLoad)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var raw rawQuiz
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode yaml: %v", ErrContentLoad, err)
	}

	q := &domain.Quiz{
		Title:      strings.TrimSpace(raw.Title),
		Questions:  make([]domain.Question, 0, len(raw.Questions)),
		Characters: make([]domain.Character, 0, len(raw.Characters)),
	}

	for qi, rq := range raw.Questions {
		question := domain.Question{
			Index:   qi,
			Prompt:  strings.TrimSpace(rq.Prompt),
			Answers: make([]domain.Answer, 0, len(rq.Answers)),
		}
		for ai, ra := range rq.Answers {
			traits, err := domain.TraitVectorFromMap(ra.Traits)
			if err != nil {
				return nil, fmt.Errorf("%w: question %d answer %d: %w", ErrContentLoad, qi, ai, err)
			}
			question.Answers = append(question.Answers, domain.Answer{
				Text:   strings.TrimSpace(ra.Text),
				Traits: traits,
			})
		}
		q.Questions = append(q.Questions, question)
	}

	for ci, rc := range raw.Characters {
		traits, err := domain.TraitVectorFromMap(rc.Traits)
		if err != nil {
			return nil, fmt.Errorf("%w: character %d (%s): %w", ErrContentLoad, ci, rc.ID, err)
		}
		q.Characters = append(q.Characters, domain.Character{
			ID:          strings.TrimSpace(rc.ID),
			Name:        strings.TrimSpace(rc.Name),
			Description: strings.TrimSpace(rc.Description),
			Traits:      traits,
		})
	}

	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContentLoad, err)
	}
	return q, nil
}
