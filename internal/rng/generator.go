package rng

import (
	"math/rand/v2"
)

// Source is the randomness a draw consumes. *rand.Rand satisfies it; tests pass
// a seeded one (rand.New(rand.NewPCG(a, b))) to get reproducible draws.
type Source interface {
	Float64() float64
	IntN(n int) int
}

var shared *rand.Rand

func init() {
	csprng, err := NewCSPRNG()
	if err != nil {
		panic("rng: failed to initialize AES-CTR CSPRNG: " + err.Error())
	}
	shared = rand.New(csprng)
}

// Default returns the process-wide generator. It is safe for concurrent use
// because the underlying CSPRNG serializes reads.
func Default() Source {
	return shared
}
