// Package decoder recovers 24-bit EV1527 frames from a stream of pulses.
//
// A frame is a sync pair (a short high followed by a very long low) and 24
// data pairs. A data pair is a 1 when the high half is the long one and a 0
// when the low half is. The decoder only compares the two halves of a pair,
// so it tolerates any absolute bit rate within the configured ratios.
package decoder

import (
	"github.com/herlein/rfalarm/pkg/ev1527"
	"github.com/herlein/rfalarm/pkg/ring"
	"github.com/herlein/rfalarm/pkg/rle"
)

// FrameBits is the number of data bits in a frame.
const FrameBits = 24

// Phase is the decoder state.
type Phase int

const (
	SeekingSync Phase = iota
	ReceivingData
)

func (p Phase) String() string {
	switch p {
	case SeekingSync:
		return "seeking-sync"
	case ReceivingData:
		return "receiving-data"
	default:
		return "unknown"
	}
}

// Stats counts decoder outcomes.
type Stats struct {
	Pulses       uint64 // pulse records consumed
	SyncFound    uint64 // sync pairs accepted
	SyncRejected uint64 // pairs that failed the sync test while seeking
	BitErrors    uint64 // frames abandoned on an unclassifiable pair
	Misaligned   uint64 // records that arrived at the wrong level
	Frames       uint64 // complete frames emitted
}

// Decoder is the frame state machine. It is driven from task context and is
// not safe for concurrent use.
type Decoder struct {
	cfg  Config
	in   ring.Reader[rle.Pulse]
	emit func(ev1527.Code)

	phase  Phase
	t1     uint32
	haveT1 bool
	bits   int
	code   ev1527.Code

	stats Stats
}

// New returns a decoder reading pulses from in and handing every complete
// frame to emit.
func New(in ring.Reader[rle.Pulse], cfg Config, emit func(ev1527.Code)) (*Decoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if emit == nil {
		return nil, ErrNoSink
	}
	return &Decoder{cfg: cfg, in: in, emit: emit}, nil
}

// Poll consumes every available pulse. A half-received pair or frame is kept
// for the next call.
func (d *Decoder) Poll() {
	for {
		p, ok := d.in.Pop()
		if !ok {
			return
		}
		d.Feed(p)
	}
}

// Feed advances the state machine by one pulse record.
func (d *Decoder) Feed(p rle.Pulse) {
	d.stats.Pulses++

	if !d.haveT1 {
		if !p.High {
			// a low where a high was expected
			if d.phase == ReceivingData {
				d.stats.Misaligned++
				d.abandon()
			}
			return
		}
		d.t1 = uint32(p.Ticks)
		d.haveT1 = true
		return
	}

	if p.High {
		// two highs in a row: the low between them was lost
		d.stats.Misaligned++
		if d.phase == ReceivingData {
			d.abandon()
		}
		d.t1 = uint32(p.Ticks)
		return
	}

	t1, t2 := d.t1, uint32(p.Ticks)
	d.haveT1 = false

	switch d.phase {
	case SeekingSync:
		d.seek(t1, t2)
	case ReceivingData:
		d.receive(t1, t2)
	}
}

func (d *Decoder) seek(t1, t2 uint32) {
	if t2 < t1*d.cfg.SyncMin || t2 > t1*d.cfg.SyncMax {
		d.stats.SyncRejected++
		return
	}
	d.stats.SyncFound++
	d.phase = ReceivingData
	d.bits = 0
	d.code = ev1527.Code{}
}

func (d *Decoder) receive(t1, t2 uint32) {
	switch {
	case t1 > t2*d.cfg.DataMin && t1 <= t2*d.cfg.DataMax:
		d.code[d.bits/8] |= 0x80 >> (d.bits % 8)
	case t2 > t1*d.cfg.DataMin && t2 <= t1*d.cfg.DataMax:
		// zero bit; nothing to set
	default:
		d.cfg.debugf("decoder: bit %d rejected (%d,%d)", d.bits, t1, t2)
		d.stats.BitErrors++
		d.abandon()
		return
	}

	d.bits++
	if d.bits < FrameBits {
		return
	}

	code := d.code
	d.stats.Frames++
	d.phase = SeekingSync
	d.bits = 0
	d.code = ev1527.Code{}
	d.cfg.debugf("decoder: frame %s", code)
	d.emit(code)
}

func (d *Decoder) abandon() {
	d.phase = SeekingSync
	d.bits = 0
	d.code = ev1527.Code{}
}

// Reset discards any partial pair or frame.
func (d *Decoder) Reset() {
	d.abandon()
	d.haveT1 = false
}

// Phase reports the current state.
func (d *Decoder) Phase() Phase {
	return d.phase
}

// Stats returns a copy of the counters.
func (d *Decoder) Stats() Stats {
	return d.stats
}
