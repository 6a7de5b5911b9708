package filter

import (
	"fmt"
	"log/slog"
	"sync"

	"firestige.xyz/faultline/internal/core"
	"firestige.xyz/faultline/internal/metrics"
)

// ServerFailureConfig configures a ServerFailure filter.
type ServerFailureConfig struct {
	// FailAfterCounts lists, per simulated outage window, how many
	// packets to forward before the window starts. The slice is copied
	// at construction. Once exhausted, the filter stays open.
	FailAfterCounts []int `mapstructure:"fail_after_counts"`
	// StartImmediately begins the first countdown at construction
	// instead of waiting for the first transfer start event.
	StartImmediately bool `mapstructure:"start_immediately"`
	// OnlyTransferChunks restricts dropping to packets that decode to
	// transfer chunks.
	OnlyTransferChunks bool `mapstructure:"only_transfer_chunks"`
}

// ServerFailure simulates a server outage: it forwards a configured
// number of packets, then drops everything until the next transfer start
// event rearms it with the next count. With the count list exhausted it
// forwards unconditionally.
type ServerFailure struct {
	base
	classify           Classifier
	onlyTransferChunks bool

	mu        sync.Mutex
	counts    []int
	open      bool
	remaining int
}

// NewServerFailure creates a ServerFailure forwarding to send.
func NewServerFailure(send SendFunc, name string, classify Classifier, cfg ServerFailureConfig) (*ServerFailure, error) {
	for i, c := range cfg.FailAfterCounts {
		if c <= 0 {
			return nil, fmt.Errorf("%w: server_failure count %d must be positive, got %d",
				core.ErrConfigInvalid, i, c)
		}
	}
	if cfg.OnlyTransferChunks && classify == nil {
		return nil, fmt.Errorf("%w: server_failure scoped to transfer chunks requires a classifier", core.ErrConfigInvalid)
	}

	counts := make([]int, len(cfg.FailAfterCounts))
	copy(counts, cfg.FailAfterCounts)

	f := &ServerFailure{
		base:               base{name: name, send: send},
		classify:           classify,
		onlyTransferChunks: cfg.OnlyTransferChunks,
		counts:             counts,
	}
	if cfg.StartImmediately {
		f.arm()
	}
	return f, nil
}

// arm pops the next count and starts a countdown, or opens the filter
// for good when the list is exhausted. Callers hold f.mu or have
// exclusive access.
func (f *ServerFailure) arm() {
	if len(f.counts) == 0 {
		f.open = true
		f.remaining = 0
		return
	}
	f.remaining = f.counts[0]
	f.counts = f.counts[1:]
}

// Process forwards packet while the countdown lasts and drops it during
// a simulated outage.
func (f *ServerFailure) Process(packet []byte) error {
	if f.onlyTransferChunks {
		if _, ok := f.classify(packet); !ok {
			return f.send(packet)
		}
	}

	f.mu.Lock()
	if f.open {
		f.mu.Unlock()
		return f.send(packet)
	}
	if f.remaining == 0 {
		f.mu.Unlock()
		slog.Debug("dropping packet during simulated outage", "filter", f.name, "bytes", len(packet))
		metrics.PacketsDroppedTotal.WithLabelValues(f.name).Inc()
		return nil
	}
	f.remaining--
	if f.remaining == 0 {
		slog.Info("simulated server outage begins", "filter", f.name)
	}
	f.mu.Unlock()
	return f.send(packet)
}

// HandleEvent rearms the countdown on every transfer start.
func (f *ServerFailure) HandleEvent(event core.Event) {
	if event.Type != core.EventTransferStart {
		return
	}
	f.mu.Lock()
	f.arm()
	f.mu.Unlock()
}
