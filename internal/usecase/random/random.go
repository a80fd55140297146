// Package random provides the randomness used by the heist engine.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// Source is the subset of *rand.Rand the engine draws from. Tests replace it
// with scripted values to force outcomes.
type Source interface {
	Intn(n int) int
	Int63n(n int64) int64
	Float64() float64
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// New returns a math/rand source seeded from crypto/rand. It is not safe for
// concurrent use; the controller only draws while holding its lock.
func New() (*rand.Rand, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return rand.New(rand.NewSource(seed)), nil
}

// Shuffle permutes n items in place with a Fisher-Yates pass.
func Shuffle(src Source, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		swap(i, j)
	}
}

// Int64Between draws uniformly from [min, max].
func Int64Between(src Source, min, max int64) int64 {
	if max <= min {
		return min
	}
	return min + src.Int63n(max-min+1)
}

// Scripted replays fixed values, then repeats the last one. Intended for
// tests that need a forced outcome.
type Scripted struct {
	Ints     []int
	Int63s   []int64
	Floats   []float64
	intPos   int
	i63Pos   int
	floatPos int
}

func (s *Scripted) Intn(n int) int {
	v := next(s.Ints, &s.intPos)
	if n <= 0 {
		return 0
	}
	return v % n
}

func (s *Scripted) Int63n(n int64) int64 {
	v := next(s.Int63s, &s.i63Pos)
	if n <= 0 {
		return 0
	}
	return v % n
}

func (s *Scripted) Float64() float64 {
	return next(s.Floats, &s.floatPos)
}

func next[T any](values []T, pos *int) T {
	var zero T
	if len(values) == 0 {
		return zero
	}
	if *pos >= len(values) {
		return values[len(values)-1]
	}
	v := values[*pos]
	*pos++
	return v
}
