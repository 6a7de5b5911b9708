// Package transfer classifies proxied packets as transfer protocol chunks.
//
// A packet on the wire is an HDLC frame wrapping an RPC packet protobuf
// whose payload is a transfer chunk protobuf. Classification is best
// effort: arbitrary or malformed bytes are reported as "not a chunk",
// never as an error.
package transfer

import (
	"google.golang.org/protobuf/encoding/protowire"

	"firestige.xyz/faultline/internal/core"
	"firestige.xyz/faultline/internal/hdlc"
)

// RPC packet field numbers.
const (
	rpcFieldPayload = 5
)

// Transfer chunk field numbers.
const (
	chunkFieldTransferID = 1
	chunkFieldOffset     = 5
	chunkFieldData       = 6
	chunkFieldStatus     = 8
	chunkFieldType       = 10
	chunkFieldSessionID  = 12
)

// Classify decodes one complete HDLC frame into a chunk descriptor.
// ok is false when the packet is not a well-formed frame carrying an RPC
// packet with a transfer chunk payload.
func Classify(packet []byte) (core.ChunkDescriptor, bool) {
	_, rpcPacket, err := hdlc.Decode(packet)
	if err != nil {
		return core.ChunkDescriptor{}, false
	}

	payload, ok := rpcPayload(rpcPacket)
	if !ok {
		return core.ChunkDescriptor{}, false
	}
	return parseChunk(payload)
}

// rpcPayload scans an RPC packet message and extracts the payload field.
func rpcPayload(msg []byte) ([]byte, bool) {
	var payload []byte
	found := false

	for len(msg) > 0 {
		num, typ, n := protowire.ConsumeTag(msg)
		if n < 0 {
			return nil, false
		}
		msg = msg[n:]

		if num == rpcFieldPayload && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(msg)
			if n < 0 {
				return nil, false
			}
			payload, found = v, true
			msg = msg[n:]
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, msg)
		if n < 0 {
			return nil, false
		}
		msg = msg[n:]
	}
	return payload, found
}

// parseChunk scans a transfer chunk message into a descriptor. When the
// type field is absent the chunk predates typed chunks and its type is
// inferred: an empty chunk at offset zero with no status starts a
// transfer, a chunk with data carries data, anything else requests a
// retransmission.
func parseChunk(msg []byte) (core.ChunkDescriptor, bool) {
	var (
		desc      core.ChunkDescriptor
		hasType   bool
		hasData   bool
		hasStatus bool
	)

	for len(msg) > 0 {
		num, typ, n := protowire.ConsumeTag(msg)
		if n < 0 {
			return core.ChunkDescriptor{}, false
		}
		msg = msg[n:]

		switch {
		case num == chunkFieldType && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(msg)
			if n < 0 {
				return core.ChunkDescriptor{}, false
			}
			desc.Type = core.ChunkType(v)
			hasType = true
			msg = msg[n:]

		case num == chunkFieldOffset && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(msg)
			if n < 0 {
				return core.ChunkDescriptor{}, false
			}
			desc.Offset = v
			desc.HasOffset = true
			msg = msg[n:]

		case (num == chunkFieldSessionID || num == chunkFieldTransferID) && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(msg)
			if n < 0 {
				return core.ChunkDescriptor{}, false
			}
			desc.SessionID = v
			desc.HasSessionID = true
			msg = msg[n:]

		case num == chunkFieldData && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(msg)
			if n < 0 {
				return core.ChunkDescriptor{}, false
			}
			hasData = len(v) > 0
			msg = msg[n:]

		case num == chunkFieldStatus && typ == protowire.VarintType:
			_, n := protowire.ConsumeVarint(msg)
			if n < 0 {
				return core.ChunkDescriptor{}, false
			}
			hasStatus = true
			msg = msg[n:]

		default:
			n = protowire.ConsumeFieldValue(num, typ, msg)
			if n < 0 {
				return core.ChunkDescriptor{}, false
			}
			msg = msg[n:]
		}
	}

	if !hasType {
		switch {
		case desc.Offset == 0 && !hasData && !hasStatus:
			desc.Type = core.ChunkStart
		case hasData:
			desc.Type = core.ChunkData
		default:
			desc.Type = core.ChunkParametersRetransmit
		}
	}
	return desc, true
}

// IsTransferChunk reports whether the packet decodes to any transfer chunk.
func IsTransferChunk(packet []byte) bool {
	_, ok := Classify(packet)
	return ok
}
