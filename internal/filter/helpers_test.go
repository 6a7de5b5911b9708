package filter

import (
	"sync"

	"firestige.xyz/faultline/internal/core"
	"firestige.xyz/faultline/internal/transfer"
)

// sink collects everything forwarded to it. Safe for use from timer
// goroutines.
type sink struct {
	mu      sync.Mutex
	packets [][]byte
}

func (s *sink) send(packet []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packets = append(s.packets, packet)
	return nil
}

func (s *sink) sent() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.packets))
	copy(out, s.packets)
	return out
}

func (s *sink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.packets)
}

func (s *sink) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packets = nil
}

// scriptedRand plays back a fixed sequence of draws, then stays high so
// probabilistic filters stop triggering.
type scriptedRand struct {
	values []float64
}

func (r *scriptedRand) Uniform(lo, hi float64) float64 {
	if len(r.values) == 0 {
		return hi
	}
	v := r.values[0]
	r.values = r.values[1:]
	return v
}

// dataChunkFrame builds the on-wire form of a data chunk for tests that
// need classifiable traffic.
func dataChunkFrame(offset uint64, data []byte) []byte {
	return transfer.EncodeChunkFrame(core.ChunkDescriptor{
		Type:      core.ChunkData,
		Offset:    offset,
		HasOffset: true,
	}, data)
}

func bytesOf(ss ...string) [][]byte {
	out := make([][]byte, len(ss))
	for i, s := range ss {
		out[i] = []byte(s)
	}
	return out
}
