package rle

import "github.com/herlein/rfalarm/pkg/ring"

// Encoder drains packed samples and emits one Pulse per completed run.
// It runs in task context.
type Encoder struct {
	in  ring.Reader[byte]
	out ring.Writer[Pulse]

	level bool   // level of the run in progress; the line starts low
	count uint16 // ticks in the run in progress
}

// NewEncoder returns an encoder reading packed samples from in.
func NewEncoder(in ring.Reader[byte], out ring.Writer[Pulse]) *Encoder {
	return &Encoder{in: in, out: out}
}

// Poll consumes every byte currently available and returns how many bytes
// were read. It never blocks.
func (e *Encoder) Poll() int {
	n := 0
	for {
		b, ok := e.in.Pop()
		if !ok {
			return n
		}
		e.encode(b)
		n++
	}
}

func (e *Encoder) encode(b byte) {
	for i := 0; i < 8; i++ {
		high := b&0x80 != 0
		b <<= 1

		if high != e.level {
			e.emit()
			e.level = high
			e.count = 0
		}
		if e.count < MaxTicks {
			e.count++
		}
	}
}

// Flush emits the run in progress, if any, and starts a new empty run at the
// same level. Use it at the end of a finite capture.
func (e *Encoder) Flush() {
	e.emit()
	e.count = 0
}

// Reset forgets the run in progress and returns to the idle low level.
func (e *Encoder) Reset() {
	e.level = false
	e.count = 0
}

func (e *Encoder) emit() {
	if e.count == 0 {
		return
	}
	e.out.Push(Pulse{High: e.level, Ticks: e.count})
}
