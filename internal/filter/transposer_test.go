package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/faultline/internal/core"
)

func newTestTransposer(t *testing.T, s *sink, rate float64, timeout time.Duration) *DataTransposer {
	t.Helper()
	tr, err := NewDataTransposer(s.send, "test", TransposerConfig{
		Rate:    rate,
		Timeout: timeout,
	})
	require.NoError(t, err)
	return tr
}

func TestDataTransposerSwapsAdjacentPackets(t *testing.T) {
	s := &sink{}
	tr := newTestTransposer(t, s, 0.5, time.Minute)
	// First draw selects the packet for holding, second lets the partner
	// through.
	tr.SetRand(&scriptedRand{values: []float64{0.1, 0.9}})

	require.NoError(t, tr.Process([]byte("aaaaaaaaaa")))
	assert.Empty(t, s.sent())

	require.NoError(t, tr.Process([]byte("bbbbbbbbbb")))
	assert.Equal(t, bytesOf("bbbbbbbbbb", "aaaaaaaaaa"), s.sent())

	require.NoError(t, tr.Close())
}

func TestDataTransposerTimeoutFlushesAlone(t *testing.T) {
	s := &sink{}
	tr := newTestTransposer(t, s, 1.0, 20*time.Millisecond)

	require.NoError(t, tr.Process([]byte("aaaaaaaaaa")))
	assert.Empty(t, s.sent())

	require.Eventually(t, func() bool { return s.count() == 1 },
		2*time.Second, 5*time.Millisecond)
	assert.Equal(t, bytesOf("aaaaaaaaaa"), s.sent())

	require.NoError(t, tr.Close())
}

func TestDataTransposerCloseFlushesHeldPacket(t *testing.T) {
	s := &sink{}
	tr := newTestTransposer(t, s, 1.0, time.Hour)

	require.NoError(t, tr.Process([]byte("held")))
	assert.Empty(t, s.sent())

	require.NoError(t, tr.Close())
	assert.Equal(t, bytesOf("held"), s.sent())

	assert.ErrorIs(t, tr.Process([]byte("late")), core.ErrFilterClosed)
}

func TestDataTransposerConfigValidation(t *testing.T) {
	s := &sink{}

	_, err := NewDataTransposer(s.send, "test", TransposerConfig{Rate: 1.5, Timeout: time.Second})
	assert.ErrorIs(t, err, core.ErrConfigInvalid)

	_, err = NewDataTransposer(s.send, "test", TransposerConfig{Rate: 0.5})
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
}
