// Package rle turns the sampler's packed bitstream into pulse records.
package rle

import "fmt"

// MaxTicks is the largest representable pulse duration.
const MaxTicks = 0x7FFF

// Pulse is one contiguous run of a logic level, measured in sampler ticks.
type Pulse struct {
	High  bool
	Ticks uint16 // 15 bits, saturating at MaxTicks
}

// Pack returns the 2-byte wire form: level in the top bit of the first byte,
// duration in the remaining 15 bits, big-endian.
func (p Pulse) Pack() [2]byte {
	d := p.Ticks
	if d > MaxTicks {
		d = MaxTicks
	}
	hi := byte(d >> 8)
	if p.High {
		hi |= 0x80
	}
	return [2]byte{hi, byte(d)}
}

// UnpackPulse decodes the 2-byte wire form.
func UnpackPulse(b [2]byte) Pulse {
	return Pulse{
		High:  b[0]&0x80 != 0,
		Ticks: uint16(b[0]&0x7F)<<8 | uint16(b[1]),
	}
}

func (p Pulse) String() string {
	if p.High {
		return fmt.Sprintf("H%d", p.Ticks)
	}
	return fmt.Sprintf("L%d", p.Ticks)
}
