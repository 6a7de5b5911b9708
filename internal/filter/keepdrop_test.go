package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/faultline/internal/core"
	"firestige.xyz/faultline/internal/transfer"
)

func TestKeepDropQueueCyclicPattern(t *testing.T) {
	s := &sink{}
	q, err := NewKeepDropQueue(s.send, "test", nil, KeepDropConfig{
		Pattern: []int{2, 1, 3},
	})
	require.NoError(t, err)

	for _, p := range bytesOf("1", "2", "3", "4", "5", "6", "7", "8", "9") {
		require.NoError(t, q.Process(p))
	}
	assert.Equal(t, bytesOf("1", "2", "4", "5", "6", "9"), s.sent())
}

func TestKeepDropQueueInfiniteTerminalDrop(t *testing.T) {
	s := &sink{}
	q, err := NewKeepDropQueue(s.send, "test", nil, KeepDropConfig{
		Pattern: []int{2, 1, 1, -1},
	})
	require.NoError(t, err)

	for _, p := range bytesOf("1", "2", "3", "4", "5", "6", "7", "8", "9") {
		require.NoError(t, q.Process(p))
	}
	assert.Equal(t, bytesOf("1", "2", "4"), s.sent())
}

func TestKeepDropQueueTransferChunksOnly(t *testing.T) {
	s := &sink{}
	q, err := NewKeepDropQueue(s.send, "test", transfer.Classify, KeepDropConfig{
		Pattern:            []int{2, 1, 1, -1},
		OnlyTransferChunks: true,
	})
	require.NoError(t, err)

	chunk := dataChunkFrame(0, []byte("1"))

	input := [][]byte{
		[]byte("1"),
		chunk, // keep
		[]byte("2"),
		chunk, // keep
		[]byte("3"),
		[]byte("4"),
		[]byte("5"),
		chunk, // drop
		[]byte("6"),
		[]byte("7"),
		chunk, // keep
		chunk, // drop
		[]byte("8"),
		chunk, // drop
		[]byte("9"),
		chunk, // drop
		chunk, // drop
		[]byte("10"),
	}
	for _, p := range input {
		require.NoError(t, q.Process(p))
	}

	expected := [][]byte{
		[]byte("1"),
		chunk,
		[]byte("2"),
		chunk,
		[]byte("3"),
		[]byte("4"),
		[]byte("5"),
		[]byte("6"),
		[]byte("7"),
		chunk,
		[]byte("8"),
		[]byte("9"),
		[]byte("10"),
	}
	assert.Equal(t, expected, s.sent())
}

func TestKeepDropQueueCopiesPattern(t *testing.T) {
	s := &sink{}
	pattern := []int{2, 1, 3}
	q, err := NewKeepDropQueue(s.send, "test", nil, KeepDropConfig{Pattern: pattern})
	require.NoError(t, err)

	pattern[0] = 1
	pattern[1] = 9

	for _, p := range bytesOf("1", "2", "3", "4", "5", "6", "7", "8", "9") {
		require.NoError(t, q.Process(p))
	}
	assert.Equal(t, bytesOf("1", "2", "4", "5", "6", "9"), s.sent())
}

func TestKeepDropQueueConfigValidation(t *testing.T) {
	s := &sink{}

	_, err := NewKeepDropQueue(s.send, "test", nil, KeepDropConfig{})
	assert.ErrorIs(t, err, core.ErrConfigInvalid)

	_, err = NewKeepDropQueue(s.send, "test", nil, KeepDropConfig{Pattern: []int{2, 0, 1}})
	assert.ErrorIs(t, err, core.ErrConfigInvalid)

	_, err = NewKeepDropQueue(s.send, "test", nil, KeepDropConfig{
		Pattern:            []int{1},
		OnlyTransferChunks: true,
	})
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
}
