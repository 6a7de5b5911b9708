package filter

import (
	"firestige.xyz/faultline/internal/hdlc"
)

// Packetizer re-frames an arbitrary byte stream into whole frames so that
// every downstream filter sees exactly one protocol packet per Process
// call. It is normally the first filter of a chain. Trailing bytes of an
// incomplete frame wait for more input.
type Packetizer struct {
	base
	decoder *hdlc.Decoder
}

// NewPacketizer creates a Packetizer forwarding to send.
func NewPacketizer(send SendFunc, name string) *Packetizer {
	return &Packetizer{
		base:    base{name: name, send: send},
		decoder: hdlc.NewDecoder(),
	}
}

// Process feeds the stream bytes into the frame decoder and forwards
// every completed frame.
func (p *Packetizer) Process(data []byte) error {
	for _, frame := range p.decoder.Feed(data) {
		if err := p.send(frame); err != nil {
			return err
		}
	}
	return nil
}
