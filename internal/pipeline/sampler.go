package pipeline

import (
	"math/rand"
	"sync"
	"time"
)

// Sampler decides whether a given probabilistic branch is taken. The
// approval step uses it for quality-audit sampling; tests inject a fixed
// implementation to force both branches deterministically.
type Sampler interface {
	// Sample returns true with the given probability in [0,1].
	Sample(probability float64) bool
}

// randSampler is the production Sampler backed by math/rand.
type randSampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSampler returns a Sampler seeded from the current time.
func NewRandomSampler() Sampler {
	return NewSeededSampler(time.Now().UnixNano())
}

// NewSeededSampler returns a Sampler with a fixed seed, for reproducible
// runs.
func NewSeededSampler(seed int64) Sampler {
	return &randSampler{rng: rand.New(rand.NewSource(seed))}
}

// Sample implements Sampler.
func (s *randSampler) Sample(probability float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < probability
}

// fixedSampler always answers the same way. Exported through the
// constructors below for configuration-driven overrides and tests.
type fixedSampler bool

// Sample implements Sampler.
func (s fixedSampler) Sample(float64) bool { return bool(s) }

// NeverSample returns a Sampler that never takes the branch.
func NeverSample() Sampler { return fixedSampler(false) }

// AlwaysSample returns a Sampler that always takes the branch.
func AlwaysSample() Sampler { return fixedSampler(true) }
