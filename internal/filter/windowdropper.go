package filter

import (
	"fmt"
	"log/slog"
	"sync"

	"firestige.xyz/faultline/internal/core"
	"firestige.xyz/faultline/internal/metrics"
)

// WindowDropperConfig configures a WindowPacketDropper.
type WindowDropperConfig struct {
	// DropPosition is the 0-based index within each transfer window of
	// the data chunk to drop.
	DropPosition int `mapstructure:"drop_position"`
}

// WindowPacketDropper drops the data chunk at a fixed position within
// every transfer window. Window boundaries are signalled by continue and
// retransmit parameter events; after a retransmit, the single duplicate
// of the chunk at the retransmission offset that may still be in flight
// is exempt from counting.
type WindowPacketDropper struct {
	base
	classify     Classifier
	dropPosition int

	mu          sync.Mutex
	position    int
	boundary    uint64
	hasBoundary bool
}

// NewWindowPacketDropper creates a WindowPacketDropper forwarding to send.
func NewWindowPacketDropper(send SendFunc, name string, classify Classifier, cfg WindowDropperConfig) (*WindowPacketDropper, error) {
	if cfg.DropPosition < 0 {
		return nil, fmt.Errorf("%w: window dropper position must be non-negative, got %d",
			core.ErrConfigInvalid, cfg.DropPosition)
	}
	if classify == nil {
		return nil, fmt.Errorf("%w: window dropper requires a classifier", core.ErrConfigInvalid)
	}
	return &WindowPacketDropper{
		base:         base{name: name, send: send},
		classify:     classify,
		dropPosition: cfg.DropPosition,
	}, nil
}

// Process counts data chunks within the current window and drops the one
// at the configured position. Anything that is not a data chunk passes
// through uncounted.
func (w *WindowPacketDropper) Process(packet []byte) error {
	desc, ok := w.classify(packet)
	if !ok || desc.Type != core.ChunkData {
		return w.send(packet)
	}

	w.mu.Lock()
	if w.hasBoundary && desc.HasOffset && desc.Offset == w.boundary {
		// The retransmitted duplicate of the boundary chunk does not
		// belong to the new window's count. Exempt exactly one.
		w.hasBoundary = false
		w.mu.Unlock()
		return w.send(packet)
	}
	drop := w.position == w.dropPosition
	w.position++
	w.mu.Unlock()

	if drop {
		slog.Debug("dropping window packet", "filter", w.name,
			"position", w.dropPosition, "offset", desc.Offset)
		metrics.PacketsDroppedTotal.WithLabelValues(w.name).Inc()
		return nil
	}
	return w.send(packet)
}

// HandleEvent resets the window position on flow-control events and
// records the retransmission offset for the duplicate exemption.
func (w *WindowPacketDropper) HandleEvent(event core.Event) {
	switch event.Type {
	case core.EventParametersContinue:
		w.mu.Lock()
		w.position = 0
		w.mu.Unlock()
	case core.EventParametersRetransmit:
		w.mu.Lock()
		w.position = 0
		// An event without an offset gives nothing to match a duplicate
		// against.
		w.hasBoundary = event.Chunk.HasOffset
		w.boundary = event.Chunk.Offset
		w.mu.Unlock()
	}
}
