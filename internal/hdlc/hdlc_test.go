package hdlc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/faultline/internal/core"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := []byte{0x00, Flag, 0x41, Escape, 0xFF, Flag, Escape}

	frame := Encode(73, payload)
	require.Equal(t, byte(Flag), frame[0])
	require.Equal(t, byte(Flag), frame[len(frame)-1])

	// Escaping must leave no naked flag or escape bytes inside the frame.
	for _, b := range frame[1 : len(frame)-1] {
		assert.NotEqual(t, byte(Flag), b)
	}

	address, got, err := Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, uint64(73), address)
	assert.Equal(t, payload, got)
}

func TestDecodeRejectsCorruption(t *testing.T) {
	frame := Encode(1, []byte("hello"))

	// Flip a payload byte; the FCS no longer matches.
	corrupted := make([]byte, len(frame))
	copy(corrupted, frame)
	corrupted[3] ^= 0x01

	_, _, err := Decode(corrupted)
	assert.ErrorIs(t, err, core.ErrBadChecksum)

	_, _, err = Decode([]byte{Flag, 0x01, Flag})
	assert.ErrorIs(t, err, core.ErrFrameTooShort)

	_, _, err = Decode([]byte("no flags here"))
	assert.ErrorIs(t, err, core.ErrFrameTooShort)
}

func TestDecoderSplitFeeds(t *testing.T) {
	first := Encode(1, []byte("first"))
	second := Encode(1, []byte("second"))

	stream := append([]byte("leading garbage"), first...)
	stream = append(stream, second...)

	d := NewDecoder()

	// Feed one byte at a time; frames must come out whole regardless.
	var frames [][]byte
	for _, b := range stream {
		frames = append(frames, d.Feed([]byte{b})...)
	}
	require.Len(t, frames, 2)

	_, p1, err := Decode(frames[0])
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), p1)
	_, p2, err := Decode(frames[1])
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), p2)

	assert.False(t, d.Pending())
}

func TestDecoderCoalescedInput(t *testing.T) {
	first := Encode(2, []byte("aa"))
	second := Encode(2, []byte("bb"))

	d := NewDecoder()
	frames := d.Feed(append(append([]byte{}, first...), second...))
	require.Len(t, frames, 2)

	// A trailing partial frame stays buffered until completed.
	third := Encode(2, []byte("cc"))
	frames = d.Feed(third[:4])
	assert.Empty(t, frames)
	assert.True(t, d.Pending())

	frames = d.Feed(third[4:])
	require.Len(t, frames, 1)
	_, p, err := Decode(frames[0])
	require.NoError(t, err)
	assert.Equal(t, []byte("cc"), p)
}
