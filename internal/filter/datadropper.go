package filter

import (
	"fmt"
	"log/slog"
	"sync"

	"firestige.xyz/faultline/internal/core"
	"firestige.xyz/faultline/internal/metrics"
)

// DataDropperConfig configures a DataDropper.
type DataDropperConfig struct {
	// Rate is the probability in [0,1] of dropping each packet.
	Rate float64 `mapstructure:"rate"`
	// Seed initializes the deterministic RNG.
	Seed int64 `mapstructure:"seed"`
}

// DataDropper drops each packet independently with a fixed probability.
type DataDropper struct {
	base
	rate float64

	mu  sync.Mutex
	rng Rand
}

// NewDataDropper creates a DataDropper forwarding to send.
func NewDataDropper(send SendFunc, name string, cfg DataDropperConfig) (*DataDropper, error) {
	if cfg.Rate < 0 || cfg.Rate > 1 {
		return nil, fmt.Errorf("%w: dropper rate %v outside [0,1]", core.ErrConfigInvalid, cfg.Rate)
	}
	return &DataDropper{
		base: base{name: name, send: send},
		rate: cfg.Rate,
		rng:  NewSeededRand(cfg.Seed),
	}, nil
}

// SetRand replaces the randomness strategy. Intended for tests.
func (d *DataDropper) SetRand(rng Rand) { d.rng = rng }

// Process drops packet with the configured probability, otherwise
// forwards it unchanged.
func (d *DataDropper) Process(packet []byte) error {
	d.mu.Lock()
	drop := d.rng.Uniform(0, 1) < d.rate
	d.mu.Unlock()

	if drop {
		slog.Debug("randomly dropping packet", "filter", d.name, "bytes", len(packet))
		metrics.PacketsDroppedTotal.WithLabelValues(d.name).Inc()
		return nil
	}
	return d.send(packet)
}
