package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"firestige.xyz/faultline/internal/core"
	"firestige.xyz/faultline/internal/transfer"
)

func chunkFrame(desc core.ChunkDescriptor, data []byte) []byte {
	return transfer.EncodeChunkFrame(desc, data)
}

func TestEventFilterPublishesAndNeverAltersStream(t *testing.T) {
	s := &sink{}
	queue := NewQueue(16)
	f, err := NewEventFilter(s.send, "test", transfer.Classify, queue)
	require.NoError(t, err)

	// A plain RPC request carrying no chunk payload.
	var request []byte
	request = protowire.AppendTag(request, 1, protowire.VarintType)
	request = protowire.AppendVarint(request, 0)

	packets := [][]byte{
		request,
		chunkFrame(core.ChunkDescriptor{Type: core.ChunkStart, SessionID: 1, HasSessionID: true}, nil),
		chunkFrame(core.ChunkDescriptor{Type: core.ChunkData, SessionID: 1, HasSessionID: true}, []byte("3")),
		chunkFrame(core.ChunkDescriptor{Type: core.ChunkData, SessionID: 1, HasSessionID: true}, []byte("4")),
		chunkFrame(core.ChunkDescriptor{Type: core.ChunkParametersRetransmit, Offset: 8, HasOffset: true}, nil),
		chunkFrame(core.ChunkDescriptor{Type: core.ChunkParametersContinue, Offset: 16, HasOffset: true}, nil),
		[]byte("garbage"),
	}

	for _, p := range packets {
		require.NoError(t, f.Process(p))
	}

	// The stream is untouched: same packets, same order.
	assert.Equal(t, packets, s.sent())

	var published []core.Event
	for len(queue.ch) > 0 {
		published = append(published, <-queue.ch)
	}

	require.Len(t, published, 3)
	assert.Equal(t, core.EventTransferStart, published[0].Type)
	assert.Equal(t, uint64(1), published[0].Chunk.SessionID)
	assert.Equal(t, core.EventParametersRetransmit, published[1].Type)
	assert.Equal(t, uint64(8), published[1].Chunk.Offset)
	assert.True(t, published[1].Chunk.HasOffset)
	assert.Equal(t, core.EventParametersContinue, published[2].Type)
	assert.Equal(t, uint64(16), published[2].Chunk.Offset)
}

func TestEventFilterForwardsWhenQueueClosed(t *testing.T) {
	s := &sink{}
	queue := NewQueue(1)
	f, err := NewEventFilter(s.send, "test", transfer.Classify, queue)
	require.NoError(t, err)

	queue.Close()

	start := chunkFrame(core.ChunkDescriptor{Type: core.ChunkStart}, nil)
	require.NoError(t, f.Process(start))
	assert.Equal(t, [][]byte{start}, s.sent())
}

func TestEventFilterRequiresCollaborators(t *testing.T) {
	s := &sink{}

	_, err := NewEventFilter(s.send, "test", nil, NewQueue(1))
	assert.ErrorIs(t, err, core.ErrConfigInvalid)

	_, err = NewEventFilter(s.send, "test", transfer.Classify, nil)
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
}
