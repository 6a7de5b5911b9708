// Package filter implements the composable fault-injection filters that
// form a proxy direction's processing chain, plus the event plumbing that
// lets filters react to protocol milestones observed elsewhere.
package filter

import (
	"math/rand"

	"firestige.xyz/faultline/internal/core"
)

// SendFunc forwards a packet to the next stage of a chain. The terminal
// SendFunc of a chain writes to the real transport. A SendFunc may block.
type SendFunc func(packet []byte) error

// Classifier decodes a raw packet into a chunk descriptor. ok is false
// when the packet does not carry a transfer chunk; classification never
// fails on arbitrary bytes.
type Classifier func(packet []byte) (core.ChunkDescriptor, bool)

// Filter consumes one packet at a time and forwards zero or more packets
// downstream, possibly delayed or reordered. Process runs on the
// direction's goroutine and HandleEvent on the dispatcher's goroutine;
// implementations guard their state accordingly.
type Filter interface {
	// Name identifies the filter instance in logs and metrics.
	Name() string

	// Process consumes one packet. Downstream send errors propagate
	// unmodified; unclassifiable packets never fail.
	Process(packet []byte) error

	// HandleEvent applies a protocol event to the filter's state. It
	// never forwards packets.
	HandleEvent(event core.Event)

	// Close cancels outstanding timers. A held packet is flushed
	// downstream rather than leaked.
	Close() error
}

// base carries the pieces every filter shares. Embedders get the no-op
// event and close behavior for free.
type base struct {
	name string
	send SendFunc
}

func (b *base) Name() string { return b.name }

func (b *base) HandleEvent(core.Event) {}

func (b *base) Close() error { return nil }

// Rand is the injectable randomness strategy used by probabilistic
// filters. Tests substitute a scripted implementation.
type Rand interface {
	// Uniform draws a uniformly distributed value in [lo, hi).
	Uniform(lo, hi float64) float64
}

// seededRand is the production Rand backed by a seeded PRNG.
type seededRand struct {
	rng *rand.Rand
}

// NewSeededRand creates a deterministic Rand from seed.
func NewSeededRand(seed int64) Rand {
	return &seededRand{rng: rand.New(rand.NewSource(seed))}
}

func (r *seededRand) Uniform(lo, hi float64) float64 {
	return lo + r.rng.Float64()*(hi-lo)
}
