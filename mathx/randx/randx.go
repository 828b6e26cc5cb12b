package randx

import (
	"math/rand/v2"

	"github.com/sw965/omw/mathx/randx"
)

// DefaultSeed is the seed used when a caller asks for a reproducible generator without
// naming one.
const DefaultSeed = 10000

// derivedSeedMax bounds the seeds handed to child generators.
const derivedSeedMax = 2147462579

func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func NewDefault() *rand.Rand {
	return New(DefaultSeed)
}

func NewFromGlobalSeed() *rand.Rand {
	return randx.NewPCGFromGlobalSeed()
}

// Derive draws a seed in [1, 2147462579) from rng and returns a generator seeded with it.
// rng advances by exactly one draw.
func Derive(rng *rand.Rand) *rand.Rand {
	seed := 1 + rng.Uint64N(derivedSeedMax-1)
	return New(seed)
}

func Normal(rng *rand.Rand, mean, std float64) float64 {
	return rng.NormFloat64()*std + mean
}

func Uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
