package thermal

import "math/rand/v2"

// NoiseSource yields standard normal samples for process noise.
// *rand.Rand satisfies it.
type NoiseSource interface {
	NormFloat64() float64
}

// ZeroNoise disables process noise.
type ZeroNoise struct{}

// NormFloat64 always returns 0.
func (ZeroNoise) NormFloat64() float64 { return 0 }

// NewSeededNoise returns a deterministic normal source.
func NewSeededNoise(seed uint64) NoiseSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
