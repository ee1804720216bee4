// Package dice rolls the configured die types and maps a rolled value onto
// a SuccessLevel band.
package dice

import (
	"math/rand/v2"
	"strconv"
	"strings"
)

// Source is the randomness provider for rolls, loot and coin flips.
type Source interface {
	// IntN returns a random int in [0, n). n must be > 0.
	IntN(n int) int
	// Float64 returns a random float in [0.0, 1.0).
	Float64() float64
}

// NewSource returns a seeded PCG source. The same seed always replays the
// same sequence.
func NewSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Queue is a deterministic Source for tests. Ints and Floats are consumed
// in order; an exhausted queue returns zero.
type Queue struct {
	ints   []int
	floats []float64
}

// NewQueue prepares a queue that answers IntN with ints.
func NewQueue(ints ...int) *Queue {
	return &Queue{ints: ints}
}

// WithFloats appends values answered by Float64.
func (q *Queue) WithFloats(floats ...float64) *Queue {
	q.floats = append(q.floats, floats...)
	return q
}

func (q *Queue) IntN(n int) int {
	if len(q.ints) == 0 {
		return 0
	}
	v := q.ints[0]
	q.ints = q.ints[1:]
	if n > 0 && (v < 0 || v >= n) {
		v = ((v % n) + n) % n
	}
	return v
}

func (q *Queue) Float64() float64 {
	if len(q.floats) == 0 {
		return 0
	}
	v := q.floats[0]
	q.floats = q.floats[1:]
	return v
}

// DieType names a die, e.g. "d20".
type DieType string

const (
	D12  DieType = "d12"
	D20  DieType = "d20"
	D100 DieType = "d100"
)

// Sides parses the face count out of the die name. Unknown names yield 0.
func (d DieType) Sides() int {
	s := strings.ToLower(strings.TrimSpace(string(d)))
	if !strings.HasPrefix(s, "d") {
		return 0
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// Roll is one die result together with the range it was drawn from.
type Roll struct {
	Die   DieType `json:"die"`
	Value int     `json:"value"`
	Min   int     `json:"min"`
	Max   int     `json:"max"`
}

// Range returns the inclusive bounds the value was drawn from.
func (r Roll) Range() (int, int) { return r.Min, r.Max }

// RollDie draws a uniform value in [1, sides]. An unknown die returns the
// zero range so the resolver can fall back gracefully.
func RollDie(src Source, die DieType) Roll {
	sides := die.Sides()
	if sides <= 0 {
		return Roll{Die: die}
	}
	return Roll{Die: die, Value: src.IntN(sides) + 1, Min: 1, Max: sides}
}

// RollRange returns a uniform int in [min, max]. Swapped bounds are
// normalised; equal bounds return min without consuming randomness.
func RollRange(src Source, min, max int) int {
	if max < min {
		min, max = max, min
	}
	if max == min {
		return min
	}
	return min + src.IntN(max-min+1)
}

// Chance reports a Bernoulli trial: true when the next float is < p.
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}
