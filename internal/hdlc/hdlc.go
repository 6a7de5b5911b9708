// Package hdlc implements the HDLC-lite framing used on the wire between
// the device and the host: flag-delimited unnumbered-information frames
// with byte escaping and a CRC-32 frame check sequence.
package hdlc

import (
	"encoding/binary"
	"hash/crc32"

	"firestige.xyz/faultline/internal/core"
)

const (
	// Flag delimits the start and end of every frame.
	Flag = 0x7E
	// Escape prefixes an escaped byte; the escaped byte is XORed with 0x20.
	Escape = 0x7D

	escapeMask = 0x20

	// ControlUI is the control octet of an unnumbered-information frame.
	ControlUI = 0x03

	// flags + 1 address byte + control + 4 byte FCS
	minFrameLen = 8
)

// Encode builds a complete unnumbered-information frame around payload:
// varint address, UI control octet, payload and little-endian CRC-32,
// escaped and wrapped in flag bytes.
func Encode(address uint64, payload []byte) []byte {
	body := binary.AppendUvarint(nil, address)
	body = append(body, ControlUI)
	body = append(body, payload...)

	fcs := crc32.ChecksumIEEE(body)
	body = binary.LittleEndian.AppendUint32(body, fcs)

	out := make([]byte, 0, len(body)+2)
	out = append(out, Flag)
	for _, b := range body {
		if b == Flag || b == Escape {
			out = append(out, Escape, b^escapeMask)
			continue
		}
		out = append(out, b)
	}
	return append(out, Flag)
}

// Decode parses one complete frame (including both flag bytes), verifies
// the frame check sequence and returns the address and payload.
func Decode(frame []byte) (address uint64, payload []byte, err error) {
	if len(frame) < minFrameLen || frame[0] != Flag || frame[len(frame)-1] != Flag {
		return 0, nil, core.ErrFrameTooShort
	}

	body := make([]byte, 0, len(frame)-2)
	escaped := false
	for _, b := range frame[1 : len(frame)-1] {
		if escaped {
			body = append(body, b^escapeMask)
			escaped = false
			continue
		}
		if b == Escape {
			escaped = true
			continue
		}
		body = append(body, b)
	}
	if escaped || len(body) < minFrameLen-2 {
		return 0, nil, core.ErrFrameTooShort
	}

	data, fcs := body[:len(body)-4], binary.LittleEndian.Uint32(body[len(body)-4:])
	if crc32.ChecksumIEEE(data) != fcs {
		return 0, nil, core.ErrBadChecksum
	}

	address, n := binary.Uvarint(data)
	if n <= 0 || len(data) < n+1 {
		return 0, nil, core.ErrFrameTooShort
	}
	// Skip the control octet after the address.
	return address, data[n+1:], nil
}

// Decoder incrementally cuts a byte stream into complete frames. It keeps
// no opinion on frame validity: callers that care run Decode on the result.
type Decoder struct {
	buf     []byte
	inFrame bool
}

// NewDecoder creates an empty stream decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed consumes the next stretch of stream bytes and returns the raw bytes
// (flag to flag) of every frame completed by this input. Bytes between
// frames are discarded; a partial frame is buffered until more input
// arrives.
func (d *Decoder) Feed(p []byte) [][]byte {
	var frames [][]byte
	for _, b := range p {
		if !d.inFrame {
			if b == Flag {
				d.inFrame = true
				d.buf = append(d.buf[:0], Flag)
			}
			continue
		}

		d.buf = append(d.buf, b)
		if b != Flag {
			continue
		}
		if len(d.buf) == 2 {
			// Back-to-back flags: treat as the opening flag of the
			// next frame, not an empty frame.
			d.buf = d.buf[:1]
			continue
		}

		frame := make([]byte, len(d.buf))
		copy(frame, d.buf)
		frames = append(frames, frame)
		d.inFrame = false
		d.buf = d.buf[:0]
	}
	return frames
}

// Pending reports whether a partial frame is buffered.
func (d *Decoder) Pending() bool {
	return d.inFrame && len(d.buf) > 1
}
