package domain

import "time"

// DominanceThreshold es el porcentaje maximo que un personaje puede capturar
// de las partidas aleatorias sin considerarse dominante. Politica fija.
const DominanceThreshold = 25.0

const (
	SearchMethodRandom = "random"
	SearchMethodGreedy = "greedy"
)

// CharacterScore es la similitud de un personaje contra un vector acumulado.
type CharacterScore struct {
	CharacterID string  `json:"character_id"`
	Name        string  `json:"name"`
	Similarity  float64 `json:"similarity"`
	Defined     bool    `json:"defined"` // false si algun vector tiene magnitud cero
}

// MatchResult es la salida del modelo de puntaje: siempre exactamente un personaje.
type MatchResult struct {
	Character Character        `json:"character"`
	Traits    TraitVector      `json:"traits"`
	Scores    []CharacterScore `json:"scores,omitempty"`
}

// Tally es la cantidad de partidas que cayeron en un personaje.
type Tally struct {
	CharacterID string  `json:"character_id"`
	Name        string  `json:"name"`
	Count       int     `json:"count"`
	Share       float64 `json:"share"` // porcentaje sobre Rounds
}

// DistributionReport resume una corrida de fuzz aleatorio.
type DistributionReport struct {
	Rounds    int            `json:"rounds"`
	Counts    map[string]int `json:"counts"`
	Ranked    []Tally        `json:"ranked"`
	Unique    int            `json:"unique"`
	Total     int            `json:"total"`
	Missing   []Character    `json:"missing,omitempty"`
	Top       Tally          `json:"top"`
	MaxShare  float64        `json:"max_share"`
	Threshold float64        `json:"threshold"`
	Dominated bool           `json:"dominated"`
}

// ReachabilityResult es el veredicto de busqueda para un personaje.
// Reachable=false significa "no encontrado por la heuristica", no una prueba.
type ReachabilityResult struct {
	Target       Character      `json:"target"`
	Reachable    bool           `json:"reachable"`
	Method       string         `json:"method,omitempty"`
	Witness      AnswerSequence `json:"witness,omitempty"`
	Attempts     int            `json:"attempts"`
	LandedOn     *Character     `json:"landed_on,omitempty"`
	GreedyPath   AnswerSequence `json:"greedy_path,omitempty"`
	GreedyTraits *TraitVector   `json:"greedy_traits,omitempty"`
}

// AuditReport es el resultado completo de una corrida del harness.
type AuditReport struct {
	ID           string               `json:"id"`
	QuizTitle    string               `json:"quiz_title"`
	Seed         uint64               `json:"seed"`
	Attempts     int                  `json:"attempts"`
	Distribution DistributionReport   `json:"distribution"`
	Reachability []ReachabilityResult `json:"reachability"`
	Passed       bool                 `json:"passed"`
	StartedAt    time.Time            `json:"started_at"`
	FinishedAt   time.Time            `json:"finished_at"`
}

// UnreachableCount cuenta los personajes que la busqueda no alcanzo.
func (r AuditReport) UnreachableCount() int {
	n := 0
	for _, res := range r.Reachability {
		if !res.Reachable {
			n++
		}
	}
	return n
}

// Verdict aplica la regla de aprobacion: sin dominancia y todos alcanzables.
func (r AuditReport) Verdict() bool {
	return !r.Distribution.Dominated && r.UnreachableCount() == 0
}
