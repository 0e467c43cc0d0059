package sampler

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/herlein/rfalarm/pkg/irq"
	"github.com/herlein/rfalarm/pkg/ring"
)

type sink []byte

func (s *sink) Push(b byte) { *s = append(*s, b) }

func TestSamplePacksMSBFirst(t *testing.T) {
	c := qt.New(t)
	var out sink
	s := New(&out)

	for _, level := range []bool{true, false, true, true, false, false, false, true} {
		s.Sample(level)
	}
	c.Assert([]byte(out), qt.DeepEquals, []byte{0xB1})
}

func TestPartialByteIsHeld(t *testing.T) {
	c := qt.New(t)
	var out sink
	s := New(&out)

	for i := 0; i < 7; i++ {
		s.Sample(true)
	}
	c.Assert(out, qt.HasLen, 0)
	s.Sample(false)
	c.Assert([]byte(out), qt.DeepEquals, []byte{0xFE})
}

func TestSampleByteAligned(t *testing.T) {
	c := qt.New(t)
	var out sink
	s := New(&out)

	s.SampleByte(0xA5)
	c.Assert([]byte(out), qt.DeepEquals, []byte{0xA5})
}

func TestSampleByteUnaligned(t *testing.T) {
	c := qt.New(t)
	var out sink
	s := New(&out)

	s.Sample(true)
	s.Sample(true)
	s.Sample(true)
	s.Sample(true)
	s.SampleByte(0x0F)
	// 1111 + 0000 | 1111 + pending
	c.Assert([]byte(out), qt.DeepEquals, []byte{0xF0})
	for i := 0; i < 4; i++ {
		s.Sample(false)
	}
	c.Assert([]byte(out), qt.DeepEquals, []byte{0xF0, 0xF0})
}

func TestRepeatMatchesSample(t *testing.T) {
	c := qt.New(t)
	var fast, slow sink
	a, b := New(&fast), New(&slow)

	runs := []struct {
		high bool
		n    int
	}{{false, 3}, {true, 21}, {false, 8}, {true, 1}, {false, 15}}

	for _, r := range runs {
		a.Repeat(r.high, r.n)
		for i := 0; i < r.n; i++ {
			b.Sample(r.high)
		}
	}
	c.Assert([]byte(fast), qt.DeepEquals, []byte(slow))
}

func TestSampleDoesNotAllocate(t *testing.T) {
	c := qt.New(t)
	s := New(ring.New[byte](8, irq.None{}))

	// runs long enough to wrap the ring several times
	level := false
	allocs := testing.AllocsPerRun(1000, func() {
		level = !level
		s.Sample(level)
		s.SampleByte(0xA5)
	})
	c.Assert(allocs, qt.Equals, float64(0))
}
