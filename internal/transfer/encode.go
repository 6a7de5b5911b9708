package transfer

import (
	"google.golang.org/protobuf/encoding/protowire"

	"firestige.xyz/faultline/internal/core"
	"firestige.xyz/faultline/internal/hdlc"
)

// Default RPC envelope used when synthesizing frames.
const (
	defaultAddress   = 73
	defaultChannelID = 101
	defaultServiceID = 1001
	defaultMethodID  = 100001

	rpcFieldType      = 1
	rpcFieldChannelID = 2
	rpcFieldServiceID = 3
	rpcFieldMethodID  = 4
)

// EncodeChunk serializes a chunk descriptor (plus optional data) into the
// transfer chunk wire format. Used to synthesize traffic in tests and
// tooling; the proxy itself never fabricates chunks.
func EncodeChunk(desc core.ChunkDescriptor, data []byte) []byte {
	var msg []byte
	msg = protowire.AppendTag(msg, chunkFieldType, protowire.VarintType)
	msg = protowire.AppendVarint(msg, uint64(desc.Type))
	if desc.HasOffset {
		msg = protowire.AppendTag(msg, chunkFieldOffset, protowire.VarintType)
		msg = protowire.AppendVarint(msg, desc.Offset)
	}
	if desc.HasSessionID {
		msg = protowire.AppendTag(msg, chunkFieldSessionID, protowire.VarintType)
		msg = protowire.AppendVarint(msg, desc.SessionID)
	}
	if len(data) > 0 {
		msg = protowire.AppendTag(msg, chunkFieldData, protowire.BytesType)
		msg = protowire.AppendBytes(msg, data)
	}
	return msg
}

// EncodeRPCPacket wraps payload into a server-stream RPC packet message.
func EncodeRPCPacket(payload []byte) []byte {
	var msg []byte
	msg = protowire.AppendTag(msg, rpcFieldType, protowire.VarintType)
	msg = protowire.AppendVarint(msg, 7) // server stream
	msg = protowire.AppendTag(msg, rpcFieldChannelID, protowire.VarintType)
	msg = protowire.AppendVarint(msg, defaultChannelID)
	msg = protowire.AppendTag(msg, rpcFieldServiceID, protowire.VarintType)
	msg = protowire.AppendVarint(msg, defaultServiceID)
	msg = protowire.AppendTag(msg, rpcFieldMethodID, protowire.VarintType)
	msg = protowire.AppendVarint(msg, defaultMethodID)
	msg = protowire.AppendTag(msg, rpcFieldPayload, protowire.BytesType)
	msg = protowire.AppendBytes(msg, payload)
	return msg
}

// EncodeChunkFrame builds the complete on-wire form of one chunk: the
// chunk message inside an RPC packet inside an HDLC frame.
func EncodeChunkFrame(desc core.ChunkDescriptor, data []byte) []byte {
	return hdlc.Encode(defaultAddress, EncodeRPCPacket(EncodeChunk(desc, data)))
}
