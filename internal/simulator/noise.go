package simulator

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// Noise perturbs a base value by an offset drawn from [lo, hi].
type Noise interface {
	Perturb(base, lo, hi float64) float64
}

// UniformNoise draws offsets uniformly and rounds them to two decimals.
type UniformNoise struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewUniformNoise seeds the generator; a zero seed uses the current time.
func NewUniformNoise(seed uint64) *UniformNoise {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &UniformNoise{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (n *UniformNoise) Perturb(base, lo, hi float64) float64 {
	n.mu.Lock()
	u := n.rng.Float64()
	n.mu.Unlock()
	offset := math.Round((u*(hi-lo)+lo)*100) / 100
	return base + offset
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
