package filter

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"firestige.xyz/faultline/internal/core"
	"firestige.xyz/faultline/internal/metrics"
)

// TransposerConfig configures a DataTransposer.
type TransposerConfig struct {
	// Rate is the probability in [0,1] that a packet is held back to be
	// swapped with the next one.
	Rate float64 `mapstructure:"rate"`
	// Timeout bounds how long a held packet waits for a partner before
	// being flushed alone, in its original position.
	Timeout time.Duration `mapstructure:"timeout"`
	// Seed initializes the deterministic RNG.
	Seed int64 `mapstructure:"seed"`
}

// DataTransposer randomly swaps adjacent packets. A packet selected for
// transposition is held until the next packet arrives; the pair is then
// forwarded in reverse order. A timer flushes a held packet that waited
// too long.
type DataTransposer struct {
	base
	rate    float64
	timeout time.Duration
	rng     Rand

	mu      sync.Mutex
	pending []byte
	timer   *time.Timer
	closed  bool
}

// NewDataTransposer creates a DataTransposer forwarding to send.
func NewDataTransposer(send SendFunc, name string, cfg TransposerConfig) (*DataTransposer, error) {
	if cfg.Rate < 0 || cfg.Rate > 1 {
		return nil, fmt.Errorf("%w: transposer rate %v outside [0,1]", core.ErrConfigInvalid, cfg.Rate)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("%w: transposer timeout must be positive", core.ErrConfigInvalid)
	}
	return &DataTransposer{
		base:    base{name: name, send: send},
		rate:    cfg.Rate,
		timeout: cfg.Timeout,
		rng:     NewSeededRand(cfg.Seed),
	}, nil
}

// SetRand replaces the randomness strategy. Intended for tests.
func (t *DataTransposer) SetRand(rng Rand) { t.rng = rng }

// Process either forwards packet immediately, holds it for transposition,
// or forwards it ahead of a previously held packet.
func (t *DataTransposer) Process(packet []byte) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return core.ErrFilterClosed
	}

	if t.pending == nil {
		if t.rng.Uniform(0, 1) < t.rate {
			t.pending = packet
			t.timer = time.AfterFunc(t.timeout, t.flushPending)
			t.mu.Unlock()
			slog.Debug("holding packet for transposition", "filter", t.name, "bytes", len(packet))
			metrics.PacketsHeldTotal.WithLabelValues(t.name).Inc()
			return nil
		}
		t.mu.Unlock()
		return t.send(packet)
	}

	// Swap: the current packet jumps ahead of the held one. Taking the
	// held packet under the lock makes a concurrently firing timer a
	// no-op.
	held := t.pending
	t.pending = nil
	t.timer.Stop()
	t.timer = nil
	t.mu.Unlock()

	slog.Debug("transposing packets", "filter", t.name)
	if err := t.send(packet); err != nil {
		return err
	}
	return t.send(held)
}

// flushPending runs on the timer goroutine when no partner packet arrived
// within the timeout. The held packet goes out alone, unswapped.
func (t *DataTransposer) flushPending() {
	t.mu.Lock()
	held := t.pending
	t.pending = nil
	t.timer = nil
	t.mu.Unlock()

	if held == nil {
		// Lost the race against a swap or Close.
		return
	}
	slog.Debug("transposer timeout, flushing held packet", "filter", t.name)
	if err := t.send(held); err != nil {
		slog.Error("transposer flush failed", "filter", t.name, "error", err)
	}
}

// Close cancels the flush timer and forwards a still-held packet so it is
// not leaked.
func (t *DataTransposer) Close() error {
	t.mu.Lock()
	t.closed = true
	held := t.pending
	t.pending = nil
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()

	if held != nil {
		return t.send(held)
	}
	return nil
}
