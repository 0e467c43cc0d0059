package ev1527

import "github.com/herlein/rfalarm/pkg/rle"

// Timing gives the pulse widths of a frame in sampler ticks.
type Timing struct {
	SyncHigh uint16
	SyncLow  uint16
	Long     uint16
	Short    uint16
}

// DefaultTiming matches a typical 433 MHz sensor sampled every 50µs.
var DefaultTiming = Timing{SyncHigh: 10, SyncLow: 280, Long: 12, Short: 3}

// MarshalFrame returns the sync pair followed by 24 data pairs, MSB first.
// A 1 is a long high and a short low, a 0 the reverse.
func (c Code) MarshalFrame(t Timing) []rle.Pulse {
	pulses := make([]rle.Pulse, 0, 2+2*24)
	pulses = append(pulses,
		rle.Pulse{High: true, Ticks: t.SyncHigh},
		rle.Pulse{High: false, Ticks: t.SyncLow},
	)
	for i := 0; i < 24; i++ {
		if c[i/8]&(0x80>>(i%8)) != 0 {
			pulses = append(pulses,
				rle.Pulse{High: true, Ticks: t.Long},
				rle.Pulse{High: false, Ticks: t.Short})
		} else {
			pulses = append(pulses,
				rle.Pulse{High: true, Ticks: t.Short},
				rle.Pulse{High: false, Ticks: t.Long})
		}
	}
	return pulses
}

// Transmission returns the frame repeated n times, the way a sensor sends a
// burst. A final sync-width high closes the last low so that a run-length
// encoder sees it end.
func (c Code) Transmission(t Timing, n int) []rle.Pulse {
	frame := c.MarshalFrame(t)
	pulses := make([]rle.Pulse, 0, n*len(frame)+1)
	for i := 0; i < n; i++ {
		pulses = append(pulses, frame...)
	}
	return append(pulses, rle.Pulse{High: true, Ticks: t.SyncHigh})
}

// Samples expands pulses into one level per tick.
func Samples(pulses []rle.Pulse) []bool {
	n := 0
	for _, p := range pulses {
		n += int(p.Ticks)
	}
	out := make([]bool, 0, n)
	for _, p := range pulses {
		for i := uint16(0); i < p.Ticks; i++ {
			out = append(out, p.High)
		}
	}
	return out
}

// Pack packs levels eight per byte, first level in the MSB. A trailing partial
// byte is padded with its own last level.
func Pack(samples []bool) []byte {
	out := make([]byte, 0, (len(samples)+7)/8)
	var acc byte
	for i, s := range samples {
		acc <<= 1
		if s {
			acc |= 1
		}
		if i%8 == 7 {
			out = append(out, acc)
			acc = 0
		}
	}
	if rem := len(samples) % 8; rem != 0 {
		last := samples[len(samples)-1]
		for i := rem; i < 8; i++ {
			acc <<= 1
			if last {
				acc |= 1
			}
		}
		out = append(out, acc)
	}
	return out
}
