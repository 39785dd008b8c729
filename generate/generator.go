// Package generate produces the synthetic financial records a run feeds into
// the store and the pipeline. Generation is deterministic for a given seed.
package generate

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/c360/datasynth/entity"
)

// Generator produces synthetic entities from a seeded random source. A
// Generator is not safe for concurrent use; give each worker its own,
// derived with Derive.
type Generator struct {
	rng *rand.Rand
	now time.Time
}

// New creates a generator. The same seed yields the same sequence.
func New(seed int64) *Generator {
	return &Generator{
		rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)+1)),
		now: time.Now().UTC(),
	}
}

// NewStream creates an independent generator for a worker, reproducible
// from the run seed and the stream index.
func NewStream(seed, stream int64) *Generator {
	return &Generator{
		rng: rand.New(rand.NewPCG(uint64(seed), uint64(stream)+1)),
		now: time.Now().UTC(),
	}
}

// id returns a random version 4 UUID drawn from the seeded source.
func (g *Generator) id() string {
	var b [16]byte
	u64 := g.rng.Uint64()
	v64 := g.rng.Uint64()
	for i := 0; i < 8; i++ {
		b[i] = byte(u64 >> (8 * i))
		b[8+i] = byte(v64 >> (8 * i))
	}
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80

	u, err := uuid.FromBytes(b[:])
	if err != nil {
		return uuid.New().String()
	}
	return u.String()
}

func (g *Generator) pick(values []string) string {
	return values[g.rng.IntN(len(values))]
}

// cents returns a random amount in minor units within [min, max].
func (g *Generator) cents(min, max int64) int64 {
	return min + g.rng.Int64N(max-min+1)
}

func (g *Generator) pastTime(maxAge time.Duration) time.Time {
	return g.now.Add(-time.Duration(g.rng.Int64N(int64(maxAge))))
}

func (g *Generator) address() entity.Address {
	city := cities[g.rng.IntN(len(cities))]
	return entity.Address{
		Street:       g.pick(streets),
		Number:       fmt.Sprintf("%d", 1+g.rng.IntN(2000)),
		Neighborhood: g.pick(neighborhoods),
		City:         city.name,
		State:        city.state,
		PostalCode:   fmt.Sprintf("%05d-%03d", g.rng.IntN(100000), g.rng.IntN(1000)),
		Country:      "BR",
	}
}

// cpf builds an 11-digit document number with valid check digits.
func (g *Generator) cpf() string {
	digits := make([]int, 11)
	for i := 0; i < 9; i++ {
		digits[i] = g.rng.IntN(10)
	}

	sum := 0
	for i := 0; i < 9; i++ {
		sum += digits[i] * (10 - i)
	}
	digits[9] = (sum * 10 % 11) % 10

	sum = 0
	for i := 0; i < 10; i++ {
		sum += digits[i] * (11 - i)
	}
	digits[10] = (sum * 10 % 11) % 10

	out := make([]byte, 11)
	for i, d := range digits {
		out[i] = byte('0' + d)
	}
	return string(out)
}
