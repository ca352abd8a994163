package service

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"quiz-audit/internal/domain"
	"quiz-audit/internal/quiz"
)

var ErrInvalidRounds = errors.New("rounds must be positive")

// SequenceSource produce partidas aleatorias; Sampler es la implementacion real.
type SequenceSource interface {
	Sequence(length int) domain.AnswerSequence
}

// DistributionAnalyzer corre partidas aleatorias contra el modelo y mide
// si algun personaje concentra demasiados resultados.
type DistributionAnalyzer struct {
	model      quiz.ScoringModel
	characters []domain.Character
	length     int
	logger     *zap.Logger

	// Threshold es el porcentaje de dominancia; por defecto domain.DominanceThreshold.
	Threshold float64
}

func NewDistributionAnalyzer(model quiz.ScoringModel, q *domain.Quiz, logger *zap.Logger) *DistributionAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DistributionAnalyzer{
		model:      model,
		characters: q.Characters,
		length:     len(q.Questions),
		logger:     logger,
		Threshold:  domain.DominanceThreshold,
	}
}

// Analyze ejecuta rounds partidas y devuelve el conteo por nombre de personaje.
// El mapa de conteos es local a la corrida.
func (a *DistributionAnalyzer) Analyze(src SequenceSource, rounds int) (domain.DistributionReport, error) {
	if rounds <= 0 {
		return domain.DistributionReport{}, fmt.Errorf("%w: got %d", ErrInvalidRounds, rounds)
	}

	counts := make(map[string]int, len(a.characters))
	ids := make(map[string]string, len(a.characters))
	for i := 0; i < rounds; i++ {
		result := a.model.Match(src.Sequence(a.length))
		counts[result.Character.Name]++
		ids[result.Character.Name] = result.Character.ID
	}

	report := domain.DistributionReport{
		Rounds:    rounds,
		Counts:    counts,
		Ranked:    a.rank(counts, ids, rounds),
		Unique:    len(counts),
		Total:     len(a.characters),
		Threshold: a.Threshold,
	}
	for _, c := range a.characters {
		if counts[c.Name] == 0 {
			report.Missing = append(report.Missing, c)
		}
	}
	report.Top = report.Ranked[0]
	report.MaxShare = report.Top.Share
	report.Dominated = report.MaxShare > a.Threshold

	a.logger.Info("distribution analyzed",
		zap.Int("rounds", rounds),
		zap.Int("unique", report.Unique),
		zap.String("top", report.Top.Name),
		zap.Float64("max_share", report.MaxShare),
		zap.Bool("dominated", report.Dominated),
	)
	return report, nil
}

// rank ordena por conteo descendente; los empates respetan el orden del quiz.
func (a *DistributionAnalyzer) rank(counts map[string]int, ids map[string]string, rounds int) []domain.Tally {
	order := make(map[string]int, len(a.characters))
	for i, c := range a.characters {
		order[c.Name] = i
	}
	position := func(name string) int {
		if pos, ok := order[name]; ok {
			return pos
		}
		return len(a.characters)
	}

	ranked := make([]domain.Tally, 0, len(counts))
	for name, count := range counts {
		ranked = append(ranked, domain.Tally{
			CharacterID: ids[name],
			Name:        name,
			Count:       count,
			Share:       SharePct(count, rounds),
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		pi, pj := position(ranked[i].Name), position(ranked[j].Name)
		if pi != pj {
			return pi < pj
		}
		return ranked[i].Name < ranked[j].Name
	})
	return ranked
}

// SharePct es count como porcentaje de rounds.
func SharePct(count, rounds int) float64 {
	if rounds <= 0 {
		return 0
	}
	return float64(count) / (float64(rounds) / 100)
}
