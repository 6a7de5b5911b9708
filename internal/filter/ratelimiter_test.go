package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/faultline/internal/core"
)

func TestRateLimiterForwardsWithinBudget(t *testing.T) {
	s := &sink{}
	r, err := NewRateLimiter(s.send, "test", RateLimiterConfig{Rate: 1 << 20})
	require.NoError(t, err)

	packets := bytesOf("aaaa", "bbbb", "cccc")
	for _, p := range packets {
		require.NoError(t, r.Process(p))
	}
	assert.Equal(t, packets, s.sent())

	require.NoError(t, r.Close())
}

func TestRateLimiterPacesOversizedPackets(t *testing.T) {
	s := &sink{}
	// Burst smaller than the packet forces slicing; the rate is high
	// enough that the test does not stall.
	r, err := NewRateLimiter(s.send, "test", RateLimiterConfig{Rate: 1 << 20, Burst: 8})
	require.NoError(t, err)

	packet := make([]byte, 100)
	require.NoError(t, r.Process(packet))
	assert.Equal(t, [][]byte{packet}, s.sent())

	require.NoError(t, r.Close())
}

func TestRateLimiterCloseUnblocks(t *testing.T) {
	s := &sink{}
	r, err := NewRateLimiter(s.send, "test", RateLimiterConfig{Rate: 1, Burst: 1})
	require.NoError(t, err)

	// Drain the initial token.
	require.NoError(t, r.Process([]byte("x")))

	require.NoError(t, r.Close())
	assert.ErrorIs(t, r.Process([]byte("y")), core.ErrFilterClosed)
}

func TestRateLimiterConfigValidation(t *testing.T) {
	s := &sink{}
	_, err := NewRateLimiter(s.send, "test", RateLimiterConfig{})
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
}
