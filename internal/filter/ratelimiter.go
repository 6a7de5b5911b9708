package filter

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"firestige.xyz/faultline/internal/core"
)

// RateLimiterConfig configures a RateLimiter.
type RateLimiterConfig struct {
	// Rate is the sustained throughput in bytes per second.
	Rate float64 `mapstructure:"rate"`
	// Burst is the largest packet forwarded without pacing. Defaults to
	// Rate when unset.
	Burst int `mapstructure:"burst"`
}

// RateLimiter throttles the stream to a byte rate, blocking Process until
// the packet's bytes fit the budget.
type RateLimiter struct {
	base
	limiter *rate.Limiter
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewRateLimiter creates a RateLimiter forwarding to send.
func NewRateLimiter(send SendFunc, name string, cfg RateLimiterConfig) (*RateLimiter, error) {
	if cfg.Rate <= 0 {
		return nil, fmt.Errorf("%w: rate limiter rate must be positive, got %v", core.ErrConfigInvalid, cfg.Rate)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = int(cfg.Rate)
		if burst < 1 {
			burst = 1
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RateLimiter{
		base:    base{name: name, send: send},
		limiter: rate.NewLimiter(rate.Limit(cfg.Rate), burst),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Process waits until the packet's size fits the rate budget, then
// forwards it. Packets larger than the burst are paced in slices.
func (r *RateLimiter) Process(packet []byte) error {
	remaining := len(packet)
	for remaining > 0 {
		n := remaining
		if n > r.limiter.Burst() {
			n = r.limiter.Burst()
		}
		if err := r.limiter.WaitN(r.ctx, n); err != nil {
			return fmt.Errorf("%w: rate limiter cancelled", core.ErrFilterClosed)
		}
		remaining -= n
	}
	return r.send(packet)
}

// Close releases any Process call blocked on the limiter.
func (r *RateLimiter) Close() error {
	r.cancel()
	return nil
}
