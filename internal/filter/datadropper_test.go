package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/faultline/internal/core"
)

func TestDataDropperDropsByScriptedDraws(t *testing.T) {
	s := &sink{}
	d, err := NewDataDropper(s.send, "test", DataDropperConfig{Rate: 0.5})
	require.NoError(t, err)
	d.SetRand(&scriptedRand{values: []float64{0.9, 0.1, 0.49, 0.51}})

	for _, p := range bytesOf("1", "2", "3", "4") {
		require.NoError(t, d.Process(p))
	}
	assert.Equal(t, bytesOf("1", "4"), s.sent())
}

func TestDataDropperRateBounds(t *testing.T) {
	s := &sink{}

	// Rate zero forwards everything.
	d, err := NewDataDropper(s.send, "test", DataDropperConfig{Rate: 0})
	require.NoError(t, err)
	for _, p := range bytesOf("1", "2", "3") {
		require.NoError(t, d.Process(p))
	}
	assert.Equal(t, 3, s.count())

	_, err = NewDataDropper(s.send, "test", DataDropperConfig{Rate: -0.1})
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
	_, err = NewDataDropper(s.send, "test", DataDropperConfig{Rate: 1.01})
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
}

func TestDataDropperDeterministicWithSeed(t *testing.T) {
	run := func() int {
		s := &sink{}
		d, err := NewDataDropper(s.send, "test", DataDropperConfig{Rate: 0.5, Seed: 42})
		require.NoError(t, err)
		for i := 0; i < 100; i++ {
			require.NoError(t, d.Process([]byte{byte(i)}))
		}
		return s.count()
	}
	assert.Equal(t, run(), run())
}
