// Package core defines core data structures with zero external dependencies.
package core

// ChunkType identifies the role of a transfer chunk. Values mirror the
// transfer protocol's wire encoding.
type ChunkType uint8

const (
	ChunkData                 ChunkType = 0
	ChunkStart                ChunkType = 1
	ChunkParametersRetransmit ChunkType = 2
	ChunkParametersContinue   ChunkType = 3
	ChunkCompletion           ChunkType = 4
	ChunkCompletionAck        ChunkType = 5
	ChunkStartAck             ChunkType = 6
	ChunkStartAckConfirmation ChunkType = 7
)

// String returns the chunk type name for logging.
func (t ChunkType) String() string {
	switch t {
	case ChunkData:
		return "data"
	case ChunkStart:
		return "start"
	case ChunkParametersRetransmit:
		return "parameters_retransmit"
	case ChunkParametersContinue:
		return "parameters_continue"
	case ChunkCompletion:
		return "completion"
	case ChunkCompletionAck:
		return "completion_ack"
	case ChunkStartAck:
		return "start_ack"
	case ChunkStartAckConfirmation:
		return "start_ack_confirmation"
	default:
		return "unknown"
	}
}

// ChunkDescriptor is the transient classification result for one packet.
// It is produced by the transfer classifier and never persisted.
type ChunkDescriptor struct {
	Type         ChunkType
	Offset       uint64
	SessionID    uint64
	HasOffset    bool
	HasSessionID bool
}
