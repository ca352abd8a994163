package service

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"

	"quiz-audit/internal/domain"
)

// Sampler genera partidas uniformes: cada respuesta es independiente y
// equiprobable entre A, B, C y D. Con la misma semilla repite la secuencia.
// No es seguro para uso concurrente.
type Sampler struct {
	seed uint64
	rng  *rand.Rand
}

func NewSampler(seed uint64) *Sampler {
	return &Sampler{
		seed: seed,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (s *Sampler) Seed() uint64 {
	return s.seed
}

// Sequence devuelve una partida aleatoria de length respuestas.
func (s *Sampler) Sequence(length int) domain.AnswerSequence {
	seq := make(domain.AnswerSequence, length)
	for i := range seq {
		seq[i] = s.rng.IntN(domain.AnswersPerQuestion)
	}
	return seq
}

// NewSeed genera una semilla con crypto/rand para corridas sin FUZZ_SEED.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}
