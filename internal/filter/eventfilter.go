package filter

import (
	"fmt"
	"log/slog"

	"firestige.xyz/faultline/internal/core"
)

// EventFilter watches the stream for protocol milestones and publishes
// the matching events. It never delays, drops or reorders packets: every
// input is forwarded unchanged, immediately, in order.
type EventFilter struct {
	base
	classify Classifier
	queue    *Queue
}

// NewEventFilter creates an EventFilter publishing to queue and
// forwarding to send.
func NewEventFilter(send SendFunc, name string, classify Classifier, queue *Queue) (*EventFilter, error) {
	if classify == nil {
		return nil, fmt.Errorf("%w: event filter requires a classifier", core.ErrConfigInvalid)
	}
	if queue == nil {
		return nil, fmt.Errorf("%w: event filter requires an event queue", core.ErrConfigInvalid)
	}
	return &EventFilter{
		base:     base{name: name, send: send},
		classify: classify,
		queue:    queue,
	}, nil
}

// Process publishes an event for transfer start, retransmit and continue
// chunks, then forwards the packet unchanged.
func (f *EventFilter) Process(packet []byte) error {
	if desc, ok := f.classify(packet); ok {
		var event core.Event
		publish := true
		switch desc.Type {
		case core.ChunkStart:
			event = core.Event{Type: core.EventTransferStart, Chunk: desc}
		case core.ChunkParametersRetransmit:
			event = core.Event{Type: core.EventParametersRetransmit, Chunk: desc}
		case core.ChunkParametersContinue:
			event = core.Event{Type: core.EventParametersContinue, Chunk: desc}
		default:
			publish = false
		}
		if publish {
			if err := f.queue.Publish(event); err != nil {
				// The queue only closes during teardown; the packet
				// still flows.
				slog.Debug("event publish failed", "filter", f.name, "error", err)
			}
		}
	}
	return f.send(packet)
}
