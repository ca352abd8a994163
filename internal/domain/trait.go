package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	pgvector "github.com/pgvector/pgvector-go"
)

// Trait identifica uno de los ejes fijos del modelo de puntaje.
type Trait int

const (
	TraitAmbition Trait = iota
	TraitBonds
	TraitDarkness
	TraitResilience
	TraitIntellect
	TraitWrath
)

// TraitCount es la dimension de todo TraitVector.
const TraitCount = 6

var traitNames = [TraitCount]string{
	"ambition",
	"bonds",
	"darkness",
	"resilience",
	"intellect",
	"wrath",
}

// TraitNames devuelve los nombres de los rasgos en orden canonico.
func TraitNames() []string {
	out := make([]string, TraitCount)
	copy(out, traitNames[:])
	return out
}

func (t Trait) String() string {
	if t < 0 || int(t) >= TraitCount {
		return fmt.Sprintf("trait(%d)", int(t))
	}
	return traitNames[t]
}

// ParseTrait resuelve un nombre de rasgo (case-insensitive).
func ParseTrait(name string) (Trait, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, candidate := range traitNames {
		if candidate == n {
			return Trait(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTrait, name)
}

// TraitVector cubre siempre el set completo de rasgos; los ausentes valen cero.
type TraitVector [TraitCount]float64

// TraitVectorFromMap construye un vector desde un mapa nombre -> delta.
func TraitVectorFromMap(values map[string]float64) (TraitVector, error) {
	var v TraitVector
	for name, delta := range values {
		t, err := ParseTrait(name)
		if err != nil {
			return TraitVector{}, err
		}
		v[t] += delta
	}
	return v, nil
}

// Map expone el vector como mapa, incluyendo los rasgos en cero.
func (v TraitVector) Map() map[string]float64 {
	out := make(map[string]float64, TraitCount)
	for i, name := range traitNames {
		out[name] = v[i]
	}
	return out
}

func (v TraitVector) Get(t Trait) float64 {
	return v[t]
}

// Add devuelve la suma componente a componente; no muta el receptor.
func (v TraitVector) Add(other TraitVector) TraitVector {
	for i := range v {
		v[i] += other[i]
	}
	return v
}

func (v TraitVector) Dot(other TraitVector) float64 {
	var dot float64
	for i := range v {
		dot += v[i] * other[i]
	}
	return dot
}

func (v TraitVector) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

func (v TraitVector) IsZero() bool {
	return v == TraitVector{}
}

// Vector convierte el vector al tipo de columna de pgvector.
func (v TraitVector) Vector() pgvector.Vector {
	out := make([]float32, TraitCount)
	for i := range v {
		out[i] = float32(v[i])
	}
	return pgvector.NewVector(out)
}

// TraitVectorFromPG es la inversa de Vector.
func TraitVectorFromPG(pv pgvector.Vector) (TraitVector, error) {
	raw := pv.Slice()
	if len(raw) != TraitCount {
		return TraitVector{}, fmt.Errorf("trait vector: expected %d dimensions, got %d", TraitCount, len(raw))
	}
	var v TraitVector
	for i, f := range raw {
		v[i] = float64(f)
	}
	return v, nil
}

func (v TraitVector) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Map())
}

func (v *TraitVector) UnmarshalJSON(data []byte) error {
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := TraitVectorFromMap(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v TraitVector) String() string {
	parts := make([]string, 0, TraitCount)
	for i, name := range traitNames {
		if v[i] == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%g", name, v[i]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// CosineSimilarity calcula (u.c)/(|u|*|c|).
// Devuelve NaN si alguno de los dos vectores tiene magnitud cero.
func CosineSimilarity(u, c TraitVector) float64 {
	var dot, magU, magC float64
	for i := range u {
		dot += u[i] * c[i]
		magU += u[i] * u[i]
		magC += c[i] * c[i]
	}
	if magU == 0 || magC == 0 {
		return math.NaN()
	}
	return dot / (math.Sqrt(magU) * math.Sqrt(magC))
}
