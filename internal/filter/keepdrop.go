package filter

import (
	"fmt"
	"log/slog"
	"sync"

	"firestige.xyz/faultline/internal/core"
	"firestige.xyz/faultline/internal/metrics"
)

// KeepDropConfig configures a KeepDropQueue.
type KeepDropConfig struct {
	// Pattern is a sequence of segment lengths, alternating keep/drop
	// starting with keep. A negative value makes its segment apply
	// forever. The slice is copied at construction.
	Pattern []int `mapstructure:"pattern"`
	// OnlyTransferChunks restricts counting to packets that decode to
	// transfer chunks; everything else passes through uncounted.
	OnlyTransferChunks bool `mapstructure:"only_transfer_chunks"`
}

// segment is one decoded pattern element: either a finite count or a
// terminal "forever" marker.
type segment struct {
	n       int
	forever bool
}

// KeepDropQueue deterministically keeps and drops packets following a
// cyclic pattern.
type KeepDropQueue struct {
	base
	classify           Classifier
	onlyTransferChunks bool
	segments           []segment

	mu        sync.Mutex
	index     int
	remaining int
	keep      bool
}

// NewKeepDropQueue creates a KeepDropQueue forwarding to send. classify
// is consulted only when cfg.OnlyTransferChunks is set.
func NewKeepDropQueue(send SendFunc, name string, classify Classifier, cfg KeepDropConfig) (*KeepDropQueue, error) {
	if len(cfg.Pattern) == 0 {
		return nil, fmt.Errorf("%w: keep_drop pattern must not be empty", core.ErrConfigInvalid)
	}
	if cfg.OnlyTransferChunks && classify == nil {
		return nil, fmt.Errorf("%w: keep_drop scoped to transfer chunks requires a classifier", core.ErrConfigInvalid)
	}

	segments := make([]segment, len(cfg.Pattern))
	for i, v := range cfg.Pattern {
		if v == 0 {
			return nil, fmt.Errorf("%w: keep_drop pattern element %d is zero", core.ErrConfigInvalid, i)
		}
		if v < 0 {
			segments[i] = segment{forever: true}
		} else {
			segments[i] = segment{n: v}
		}
	}

	q := &KeepDropQueue{
		base:               base{name: name, send: send},
		classify:           classify,
		onlyTransferChunks: cfg.OnlyTransferChunks,
		segments:           segments,
		keep:               true,
	}
	q.remaining = segments[0].n
	return q, nil
}

// Process forwards or discards packet according to the current segment.
func (q *KeepDropQueue) Process(packet []byte) error {
	if q.onlyTransferChunks {
		if _, ok := q.classify(packet); !ok {
			return q.send(packet)
		}
	}

	q.mu.Lock()
	keep := q.keep
	if !q.segments[q.index].forever {
		q.remaining--
		if q.remaining == 0 {
			q.index++
			if q.index >= len(q.segments) {
				q.index = 0
			}
			q.keep = !q.keep
			q.remaining = q.segments[q.index].n
		}
	}
	q.mu.Unlock()

	if !keep {
		slog.Debug("dropping packet", "filter", q.name, "bytes", len(packet))
		metrics.PacketsDroppedTotal.WithLabelValues(q.name).Inc()
		return nil
	}
	return q.send(packet)
}
