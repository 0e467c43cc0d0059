// Package sampler packs a fixed-tick binary input into bytes.
//
// Sample is meant to be called from the tick interrupt (or whatever stands in
// for it on the host): it is O(1), never allocates and never blocks.
package sampler

import (
	"time"

	"github.com/herlein/rfalarm/pkg/ring"
)

// DefaultTick is the reference sampling period.
const DefaultTick = 50 * time.Microsecond

// Sampler accumulates 8 samples per byte, first sample in the MSB.
type Sampler struct {
	out   ring.Writer[byte]
	acc   byte
	count uint8
}

// New returns a sampler producing into out.
func New(out ring.Writer[byte]) *Sampler {
	return &Sampler{out: out}
}

// Sample shifts one input level into the accumulator and pushes the byte
// once eight levels have been collected.
func (s *Sampler) Sample(high bool) {
	s.acc <<= 1
	if high {
		s.acc |= 0x01
	}
	s.count++
	if s.count == 8 {
		s.out.Push(s.acc)
		s.count = 0
	}
}

// SampleByte feeds eight already-packed samples, MSB first. Sources that
// receive packed samples (a radio demodulator clocked at the tick rate) use
// it to keep the sampler the single producer of the raw ring.
func (s *Sampler) SampleByte(b byte) {
	if s.count == 0 {
		s.out.Push(b)
		return
	}
	for i := 0; i < 8; i++ {
		s.Sample(b&0x80 != 0)
		b <<= 1
	}
}

// Repeat feeds the same level n times.
func (s *Sampler) Repeat(high bool, n int) {
	for ; n > 0 && s.count != 0; n-- {
		s.Sample(high)
	}
	fill := byte(0x00)
	if high {
		fill = 0xFF
	}
	for ; n >= 8; n -= 8 {
		s.out.Push(fill)
	}
	for ; n > 0; n-- {
		s.Sample(high)
	}
}
