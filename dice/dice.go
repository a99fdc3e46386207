// Package dice provides the random draws used by turn handlers.
//
// All randomness in a transition flows through a Roller so a request can be
// replayed from a seed, and tests can script every draw.
package dice

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
)

// Roller is a source of uniform draws in [0, 1).
type Roller interface {
	Float64() float64
}

// New returns a PCG-backed roller for the given seed and stream.
func New(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}

// ForSession derives a roller that is stable for one session version, so
// the same request against the same saved state draws the same numbers.
func ForSession(seed int64, sessionID string, version int64) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(sessionID))
	return New(uint64(seed), h.Sum64()^uint64(version))
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Chance reports whether one draw lands under p.
func Chance(r Roller, p float64) bool {
	return r.Float64() < p
}

// Between draws uniformly from [lo, hi].
func Between(r Roller, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

// Pick returns an index chosen by weight. Non-positive weights are never
// picked; if every weight is non-positive Pick returns -1.
func Pick(r Roller, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}
	roll := r.Float64() * total
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		last = i
		if roll < w {
			return i
		}
		roll -= w
	}
	return last
}
