package core

// EventType tags a protocol milestone observed while classifying packets.
type EventType uint8

const (
	// EventTransferStart fires when a transfer start chunk is observed.
	EventTransferStart EventType = iota
	// EventParametersContinue fires on a window continuation chunk.
	EventParametersContinue
	// EventParametersRetransmit fires on a retransmission request chunk.
	EventParametersRetransmit
)

// String returns the event type name for logging.
func (t EventType) String() string {
	switch t {
	case EventTransferStart:
		return "transfer_start"
	case EventParametersContinue:
		return "parameters_continue"
	case EventParametersRetransmit:
		return "parameters_retransmit"
	default:
		return "unknown"
	}
}

// Event is an immutable protocol milestone published by the event filter
// and delivered to every filter in a chain by the dispatcher.
type Event struct {
	Type  EventType
	Chunk ChunkDescriptor
}
